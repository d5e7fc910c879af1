package listing

import (
	"sync"
	"time"

	"github.com/lucaspires-source/authdash/internal/directory"
)

// The three local mutations below never consult the remote directory and
// never undo themselves. Each returns a fresh slice; the input is untouched.

// AppendCreated adds a record returned by a successful create.
func AppendCreated(items []directory.UserProfile, u directory.UserProfile) []directory.UserProfile {
	out := make([]directory.UserProfile, 0, len(items)+1)
	out = append(out, items...)
	return append(out, u)
}

// MergeUpdate overwrites the submitted fields of the record with id. Fields
// the form does not carry (avatar) are kept.
func MergeUpdate(items []directory.UserProfile, id int, in directory.UserFormInput) []directory.UserProfile {
	out := make([]directory.UserProfile, len(items))
	copy(out, items)
	for i := range out {
		if out[i].ID == id {
			out[i].FirstName = in.FirstName
			out[i].LastName = in.LastName
			out[i].Email = in.Email
		}
	}
	return out
}

// RemoveByID drops every record with id.
func RemoveByID(items []directory.UserProfile, id int) []directory.UserProfile {
	out := make([]directory.UserProfile, 0, len(items))
	for _, u := range items {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}

// MillisClock returns a generator of local ids taken from the wall clock in
// milliseconds, bumped when two calls land in the same millisecond.
func MillisClock() func() int {
	var (
		mu   sync.Mutex
		last int
	)
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		n := int(time.Now().UnixMilli())
		if n <= last {
			n = last + 1
		}
		last = n
		return n
	}
}
