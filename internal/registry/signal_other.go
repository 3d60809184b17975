//go:build !unix

package registry

import "github.com/rileyhilliard/hoststats/internal/errors"

var errUnsupported = errors.New(errors.ErrRegistry,
	"Process signaling is not supported on this platform",
	"hoststats daemons require a Unix-like OS")

func probe(int) error     { return errUnsupported }
func terminate(int) error { return errUnsupported }
func kill(int) error      { return errUnsupported }
