package application

import (
	"fmt"

	"github.com/canonical/pebble/client"
	"github.com/pkg/errors"
)

//go:generate mockery --name PebbleClient --output ./mocks

// PebbleClient talks to the Pebble daemon of the workload container.
type PebbleClient interface {
	// CanConnect reports whether Pebble answers on its socket.
	CanConnect() bool
	Version() (string, error)
}

type pebbleClient struct {
	socket string
}

func PebbleSocket(container string) string {
	return fmt.Sprintf("/charm/containers/%s/pebble.socket", container)
}

func NewPebbleClient(socket string) PebbleClient {
	return &pebbleClient{socket: socket}
}

func (self *pebbleClient) CanConnect() bool {
	_, err := self.Version()
	return err == nil
}

func (self *pebbleClient) Version() (string, error) {
	c, err := client.New(&client.Config{Socket: self.socket})
	if err != nil {
		return "", errors.WithMessagef(err, "While creating Pebble client for %s", self.socket)
	}

	info, err := c.SysInfo()
	if err != nil {
		return "", errors.WithMessagef(err, "While querying Pebble at %s", self.socket)
	}

	return info.Version, nil
}
