//go:build !linux
// +build !linux

package ralink

import "errors"

var errUnimplemented = errors.New("ralink: not implemented on this platform")

// A client is the no-op implementation of the event and control channels.
type client struct{}

func newClient(_ string, _ *Config) (*driver, *client, error) { return nil, nil, errUnimplemented }

func (*client) Close() error { return errUnimplemented }

// An nl80211 is the no-op implementation of interface enumeration.
type nl80211 struct{}

func newNL80211() (*nl80211, error) { return nil, errUnimplemented }

func (*nl80211) Close() error                       { return errUnimplemented }
func (*nl80211) Interfaces() ([]*Interface, error) { return nil, errUnimplemented }
