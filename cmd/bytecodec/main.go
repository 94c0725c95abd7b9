// Command bytecodec converts data between hex, base64, base64url and UTF-8
// text on the command line.
//
//	echo -n 00ff10 | bytecodec convert --from hex --to base64
//	bytecodec decode --from base64 AP8Q > out.bin
//	bytecodec customid "user@example.com"
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
