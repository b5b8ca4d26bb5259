package tours

import "errors"

var (
	ErrTourNotFound        = errors.New("tour not found")
	ErrNotOrganizer        = errors.New("only the organizer may do this")
	ErrNotParticipant      = errors.New("user is not a participant of this tour")
	ErrAlreadyParticipant  = errors.New("user is already a participant")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrCommentNotFound     = errors.New("comment not found")
	ErrUserUnknown         = errors.New("referenced user does not exist")
)
