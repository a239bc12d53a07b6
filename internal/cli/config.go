package cli

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/config"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/output"
)

// InitConfig writes the default configuration to path. An existing file is
// kept unless force is set.
func InitConfig(w io.Writer, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return output.NewErrorf(output.CodeConfigSaveError, "config file already exists: %s (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return output.Wrap(output.CodeConfigSaveError, err, "failed to check config file")
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return output.Wrap(output.CodeConfigSaveError, err, "failed to write config")
	}
	_, _ = io.WriteString(w, "wrote "+path+"\n")
	return nil
}

// ShowConfig prints the effective configuration as YAML.
func (c *CLI) ShowConfig() error {
	data, err := yaml.Marshal(c.config)
	if err != nil {
		return output.Wrap(output.CodeInternalError, err, "failed to encode config")
	}
	return c.emit("# " + c.configPath + "\n" + string(data))
}
