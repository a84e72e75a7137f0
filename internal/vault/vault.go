// Package vault stores the instance credentials in an encrypted file.
package vault

import (
	"github.com/tonhe/agtoggle/internal/adguard"
)

// Instance is a stored instance with its credentials.
type Instance struct {
	Name     string `json:"name"`
	BaseURI  string `json:"base_uri"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Config returns the client configuration of inst.
func (inst *Instance) Config() adguard.InstanceConfig {
	return adguard.InstanceConfig{
		Name:     inst.Name,
		BaseURI:  inst.BaseURI,
		Username: inst.Username,
		Password: inst.Password,
	}
}

// Summary is an instance without its password.
type Summary struct {
	Name     string `json:"name"`
	BaseURI  string `json:"base_uri"`
	Username string `json:"username"`
}

// Summarize returns a Summary without sensitive fields.
func (inst *Instance) Summarize() Summary {
	return Summary{
		Name:     inst.Name,
		BaseURI:  inst.BaseURI,
		Username: inst.Username,
	}
}

// Provider is the interface for instance storage backends.  Instances keep
// the order in which they were added.
type Provider interface {
	List() ([]Summary, error)
	Get(name string) (*Instance, error)
	Add(inst Instance) error
	Update(name string, inst Instance) error
	Remove(name string) error
	Instances() ([]adguard.InstanceConfig, error)
}
