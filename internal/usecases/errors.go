package usecases

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied       = errors.New("user is not authorized to this action")
	ErrAuthenticationRequired = fmt.Errorf("%w: authentication required", ErrPermissionDenied)
	ErrNotARoomMember         = fmt.Errorf("%w: user is not a room member", ErrPermissionDenied)
	ErrRoleRequired           = fmt.Errorf("%w: owner or admin role required", ErrPermissionDenied)
	ErrNotInvitee             = fmt.Errorf("%w: only the invited user may join", ErrPermissionDenied)

	ErrInvalidArgument  = errors.New("invalid argument")
	ErrDirectRoomInvite = errors.New("direct rooms do not support invites")
	ErrNotFriends       = errors.New("users are not accepted friends")
)
