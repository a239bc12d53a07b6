package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type optionJSON struct {
	Short       *string   `json:"short"`
	Long        *string   `json:"long"`
	Aliases     []string  `json:"aliases,omitempty"`
	TakesValue  bool      `json:"takes_value"`
	ValueName   string    `json:"value_name,omitempty"`
	ValueHint   ValueHint `json:"value_hint,omitempty"`
	Description string    `json:"description"`
	Default     *string   `json:"default,omitempty"`
}

type positionalJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Variadic    bool   `json:"variadic"`
}

type commandJSON struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Usage       string           `json:"usage"`
	Source      SourceKind       `json:"source"`
	Options     []optionJSON     `json:"options"`
	Positionals []positionalJSON `json:"positionals"`
	Subcommands json.RawMessage  `json:"subcommands"`
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// MarshalJSON encodes the command with a fixed key order. Subcommands are
// emitted as an object whose keys follow insertion order.
func (c *Command) MarshalJSON() ([]byte, error) {
	head := commandJSON{
		Name:        c.Name,
		Description: c.Description,
		Usage:       c.Usage,
		Source:      c.Source,
		Options:     make([]optionJSON, 0, len(c.Options)),
		Positionals: make([]positionalJSON, 0, len(c.Positionals)),
	}
	for _, opt := range c.Options {
		oj := optionJSON{
			Short:       optionalString(opt.Short),
			Long:        optionalString(opt.Long),
			Aliases:     opt.Aliases,
			TakesValue:  opt.TakesValue,
			ValueName:   opt.ValueName,
			ValueHint:   opt.ValueHint,
			Description: opt.Description,
		}
		if opt.HasDefault {
			def := opt.Default
			oj.Default = &def
		}
		head.Options = append(head.Options, oj)
	}
	for _, pos := range c.Positionals {
		head.Positionals = append(head.Positionals, positionalJSON(pos))
	}

	var subs bytes.Buffer
	subs.WriteByte('{')
	for i, sub := range c.Subcommands {
		if sub == nil {
			return nil, fmt.Errorf("%w: %s: nil subcommand", ErrInvalidCommand, c.Name)
		}
		if i > 0 {
			subs.WriteByte(',')
		}
		key, err := json.Marshal(sub.Name)
		if err != nil {
			return nil, err
		}
		body, err := sub.MarshalJSON()
		if err != nil {
			return nil, err
		}
		subs.Write(key)
		subs.WriteByte(':')
		subs.Write(body)
	}
	subs.WriteByte('}')
	head.Subcommands = subs.Bytes()

	return json.Marshal(head)
}

// UnmarshalJSON decodes a command produced by MarshalJSON, keeping the order
// of the subcommands object.
func (c *Command) UnmarshalJSON(data []byte) error {
	var head commandJSON
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	cmd := Command{
		Name:        head.Name,
		Description: head.Description,
		Usage:       head.Usage,
		Source:      head.Source,
	}
	for _, oj := range head.Options {
		opt := Option{
			Short:       derefString(oj.Short),
			Long:        derefString(oj.Long),
			Aliases:     oj.Aliases,
			TakesValue:  oj.TakesValue,
			ValueName:   oj.ValueName,
			ValueHint:   oj.ValueHint,
			Description: oj.Description,
		}
		if len(opt.Aliases) == 0 {
			opt.Aliases = nil
		}
		if oj.Default != nil {
			opt.HasDefault = true
			opt.Default = *oj.Default
		}
		cmd.Options = append(cmd.Options, opt)
	}
	for _, pj := range head.Positionals {
		cmd.Positionals = append(cmd.Positionals, Positional(pj))
	}

	subs, err := decodeSubcommands(head.Subcommands)
	if err != nil {
		return fmt.Errorf("%s: %w", head.Name, err)
	}
	cmd.Subcommands = subs

	*c = cmd
	return nil
}

func decodeSubcommands(raw json.RawMessage) ([]*Command, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("subcommands: expected object, got %v", tok)
	}

	var subs []*Command
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("subcommands: expected key, got %v", tok)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate subcommand %q", ErrInvalidCommand, name)
		}
		seen[name] = true

		sub := &Command{}
		if err := dec.Decode(sub); err != nil {
			return nil, fmt.Errorf("subcommand %q: %w", name, err)
		}
		sub.Name = name
		subs = append(subs, sub)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return subs, nil
}

// Encode renders the command as indented JSON terminated by a newline.
func Encode(c *Command) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses a command previously produced by Encode and validates it.
func Decode(data []byte) (*Command, error) {
	cmd := &Command{}
	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}
