package main

import (
	"github.com/spf13/pflag"

	"github.com/unkn0wn-root/bytecodec"
)

// encodingValue lets an Encoding be set directly from a flag.
type encodingValue struct{ e *bytecodec.Encoding }

var _ pflag.Value = encodingValue{}

func (v encodingValue) String() string {
	if v.e == nil || !v.e.Valid() {
		return ""
	}
	return v.e.String()
}

func (v encodingValue) Set(s string) error {
	enc, err := bytecodec.ParseEncoding(s)
	if err != nil {
		return err
	}
	*v.e = enc
	return nil
}

func (encodingValue) Type() string { return "encoding" }

func encodingFlag(fs *pflag.FlagSet, p *bytecodec.Encoding, name, usage string) {
	fs.Var(encodingValue{e: p}, name, usage+" (hex|base64|base64url|utf8)")
}
