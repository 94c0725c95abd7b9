package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/bytecodec"
)

// unlimitedLine bounds a single --lines record when max-input is 0.
const unlimitedLine = 64 << 20

func newConvertCmd(a *app) *cobra.Command {
	var (
		from, to bytecodec.Encoding
		lines    bool
	)
	cmd := &cobra.Command{
		Use:   "convert [input]",
		Short: "Convert text from one encoding to another",
		Long: `Convert decodes the input from --from and re-encodes it as --to.
The input is taken from the argument, or from stdin with one trailing
newline removed. With --lines every stdin line is converted on its own.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if lines {
				if len(args) > 0 {
					return errors.New("--lines reads stdin; do not pass an input argument")
				}
				return a.convertLines(cmd, from, to)
			}
			in, err := a.readText(cmd, args)
			if err != nil {
				return err
			}
			out, err := a.conv.Transcode(cmd.Context(), from, to, in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		}),
	}
	encodingFlag(cmd.Flags(), &from, "from", "source encoding")
	encodingFlag(cmd.Flags(), &to, "to", "target encoding")
	cmd.Flags().BoolVar(&lines, "lines", false, "convert each stdin line independently")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) convertLines(cmd *cobra.Command, from, to bytecodec.Encoding) error {
	limit := a.cfg.MaxInput
	if limit <= 0 {
		limit = unlimitedLine
	}
	sc := bufio.NewScanner(cmd.InOrStdin())
	// +1 for a CR the scanner leaves in place
	sc.Buffer(make([]byte, 0, min(64*1024, limit+1)), limit+1)

	w := bufio.NewWriter(cmd.OutOrStdout())
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSuffix(sc.Text(), "\r")
		out, err := a.conv.Transcode(cmd.Context(), from, to, line)
		if err != nil {
			_ = w.Flush()
			return fmt.Errorf("line %d: %w", n, err)
		}
		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		_ = w.Flush()
		if errors.Is(err, bufio.ErrTooLong) {
			return fmt.Errorf("line %d: %w: longer than %d bytes", n+1, bytecodec.ErrInputTooLarge, limit)
		}
		return err
	}
	a.log.Sugar().Debugf("converted %d lines", n)
	return w.Flush()
}

func newEncodeCmd(a *app) *cobra.Command {
	var to bytecodec.Encoding
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode raw stdin bytes as text",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			b, err := readLimited(cmd.InOrStdin(), a.cfg.MaxInput)
			if err != nil {
				return err
			}
			out, err := a.conv.Encode(to, b)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		}),
	}
	encodingFlag(cmd.Flags(), &to, "to", "target encoding")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	var from bytecodec.Encoding
	cmd := &cobra.Command{
		Use:   "decode [input]",
		Short: "Decode text to raw bytes on stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			in, err := a.readText(cmd, args)
			if err != nil {
				return err
			}
			b, err := a.conv.Decode(cmd.Context(), from, in)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		}),
	}
	encodingFlag(cmd.Flags(), &from, "from", "source encoding")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func newCustomIDCmd(a *app) *cobra.Command {
	var reverse bool
	cmd := &cobra.Command{
		Use:   "customid <text>",
		Short: "Turn text into a URL-safe id, or back with --reverse",
		Long: `customid encodes text as UTF-8 and then as unpadded URL-safe base64
("+" becomes "-", "/" becomes "_", no "=" padding).`,
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var out string
			if reverse {
				s, err := a.conv.Transcode(cmd.Context(), bytecodec.Base64URL, bytecodec.UTF8, args[0])
				if err != nil {
					return err
				}
				out = s
			} else {
				out = bytecodec.BytesToBase64URL(a.conv.StringToBytes(args[0]))
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		}),
	}
	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "decode an id back to text")
	return cmd
}

// readText returns the single argument, or stdin minus one trailing newline.
func (a *app) readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	limit := a.cfg.MaxInput
	if limit > 0 {
		limit += 2 // room for a trailing CRLF
	}
	b, err := readLimited(cmd.InOrStdin(), limit)
	if err != nil {
		return "", err
	}
	s := string(b)
	if strings.HasSuffix(s, "\n") {
		s = strings.TrimSuffix(strings.TrimSuffix(s, "\n"), "\r")
	}
	return s, nil
}

// readLimited reads all of r, failing once more than limit bytes arrive.
// limit <= 0 disables the check.
func readLimited(r io.Reader, limit int) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(b) > limit {
		return nil, fmt.Errorf("%w: stdin exceeds %d bytes", bytecodec.ErrInputTooLarge, limit)
	}
	return b, nil
}
