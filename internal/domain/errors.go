package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionUnavailable covers every way a channel can fail to come
	// up: the service is not installed, the bind was rejected, or the
	// connect handshake timed out.
	ErrConnectionUnavailable = errors.New("account service unavailable")

	// ErrChannelLost means the channel dropped between the connectivity
	// check and dispatch.
	ErrChannelLost = errors.New("account service channel lost")
)

// RemoteErrorKind distinguishes transport faults from rejections the service
// itself reported.
type RemoteErrorKind string

const (
	RemoteCommunication RemoteErrorKind = "communication"
	RemoteRejection     RemoteErrorKind = "rejection"
)

// RemoteError is a failure raised during a remote call. The message is
// service-supplied for rejections and opaque to the client.
type RemoteError struct {
	Kind    RemoteErrorKind
	Message string
}

func (e *RemoteError) Error() string {
	if e.Kind == RemoteRejection {
		return fmt.Sprintf("account service rejected the request: %s", e.Message)
	}
	return fmt.Sprintf("account service call failed: %s", e.Message)
}
