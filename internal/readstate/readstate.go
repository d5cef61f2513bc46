// Package readstate models a user's read position in a channel, the
// value type of the read-state key mode.
package readstate

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// ErrMalformedKey is returned by ParseKey for anything Key could not
// have produced.
var ErrMalformedKey = errors.New("readstate: malformed key")

// ReadState is one user's unread mention count in one channel.
type ReadState struct {
	UserID    uuid.UUID
	ChannelID uuid.UUID
	Mentions  int
}

// New returns a ReadState for a fresh random user and channel.
func New() ReadState {
	return ReadState{
		UserID:    uuid.New(),
		ChannelID: uuid.New(),
	}
}

// NewFromReader is New with the randomness drawn from r, so a seeded
// source yields a repeatable sequence. It panics if r fails.
func NewFromReader(r io.Reader) ReadState {
	return ReadState{
		UserID:    uuid.Must(uuid.NewRandomFromReader(r)),
		ChannelID: uuid.Must(uuid.NewRandomFromReader(r)),
	}
}

// Key identifies the state as "<user>:<channel>".
func (rs ReadState) Key() string {
	return rs.UserID.String() + ":" + rs.ChannelID.String()
}

// ParseKey splits a Key back into its user and channel IDs.
func ParseKey(key string) (user, channel uuid.UUID, err error) {
	u, c, ok := strings.Cut(key, ":")
	if !ok {
		return user, channel, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	if user, err = uuid.Parse(u); err != nil {
		return user, channel, fmt.Errorf("%w: user: %v", ErrMalformedKey, err)
	}
	if channel, err = uuid.Parse(c); err != nil {
		return user, channel, fmt.Errorf("%w: channel: %v", ErrMalformedKey, err)
	}
	return user, channel, nil
}
