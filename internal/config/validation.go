package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is shared across Validate calls; validator instances cache
// struct metadata and are safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its struct tags and returns the
// first violation rephrased for operators.
func (c *ServerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok || len(validationErrs) == 0 {
			return err
		}
		first := validationErrs[0]
		return fmt.Errorf("field %s failed %q validation (value: %v)",
			first.Namespace(), first.Tag(), first.Value())
	}

	// stdio ignores the MCP port, so a collision only matters for network
	// transports.
	if c.Runtime.Transport != MCPTransportStdio && c.Runtime.OpsPort != 0 && c.Runtime.OpsPort == c.Runtime.Port {
		return fmt.Errorf("runtime.opsPort %d collides with runtime.port", c.Runtime.OpsPort)
	}

	return nil
}
