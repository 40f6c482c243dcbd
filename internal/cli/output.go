package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jrsaavedra1022/jwtgen"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

func (p *Printer) validate() error {
	switch p.format {
	case OutputFormatText, OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("unknown output format: %s", p.format)
}

// PrintList prints names one per line, or {key: [...]} in json mode.
func (p *Printer) PrintList(key string, names []string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{key: names})
	case OutputFormatText:
		for _, n := range names {
			fmt.Fprintln(p.writer, n)
		}
		return nil
	default:
		return p.validate()
	}
}

// PrintProfile prints the key-free view of a resolved profile.
func (p *Printer) PrintProfile(info map[string]string) error {
	if err := p.validate(); err != nil {
		return err
	}
	return p.printJSON(info)
}

// PrintSignResult prints the token. In text mode header and payload are
// printed first when requested; json mode always prints all three.
func (p *Printer) PrintSignResult(result *jwtgen.SignResult, header, payload bool) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(result)
	case OutputFormatText:
		if header {
			fmt.Fprintln(p.writer, "Header:")
			if err := p.printJSON(result.Header); err != nil {
				return err
			}
		}
		if payload {
			fmt.Fprintln(p.writer, "Payload:")
			if err := p.printJSON(result.Payload); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintln(p.writer, result.Token)
		return err
	default:
		return p.validate()
	}
}

// PrintVersion prints build information.
func (p *Printer) PrintVersion(info map[string]string) error {
	if p.format == OutputFormatJSON {
		return p.printJSON(info)
	}
	_, err := fmt.Fprintf(p.writer, "jwtgen %s\n", info["version"])
	return err
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	if p.format == OutputFormatJSON {
		out := map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
		var e *jwtgen.Error
		if errors.As(err, &e) {
			out["code"] = e.Code
		}
		return p.printJSON(out)
	}
	_, werr := fmt.Fprintf(p.writer, "Error: %v\n", err)
	return werr
}

func (p *Printer) printJSON(v any) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}
