// Package listing holds the paginated user table of one profile: what was
// loaded, what the user changed locally since, and which dialog is open.
//
// Local changes live only here. Changing page replaces the list wholesale,
// so local-only records from the previous page are gone. There is no guard
// against a write finishing after a page change; it applies to whatever list
// is current at that moment.
package listing

import (
	"context"
	"sync"

	"github.com/lucaspires-source/authdash/internal/apperr"
	"github.com/lucaspires-source/authdash/internal/directory"
	"github.com/lucaspires-source/authdash/internal/forms"
	"github.com/lucaspires-source/authdash/internal/logger"
)

const DefaultPerPage = 6

const fetchErrorBanner = "Failed to fetch users. Please try again later."

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

type Notification struct {
	Message  string
	Severity Severity
}

type DialogKind string

const (
	DialogNone   DialogKind = ""
	DialogCreate DialogKind = "create"
	DialogEdit   DialogKind = "edit"
)

type Dialog struct {
	Kind   DialogKind
	EditID int
	Form   directory.UserFormInput
	Errors forms.FieldErrors
}

func (d Dialog) Open() bool {
	return d.Kind != DialogNone
}

// Directory is the slice of the remote client the view needs.
type Directory interface {
	ListUsers(ctx context.Context, page, perPage int) (directory.Page, error)
	CreateUser(ctx context.Context, in directory.UserFormInput) (directory.UserProfile, error)
	UpdateUser(ctx context.Context, id int, in directory.UserFormInput) error
	DeleteUser(ctx context.Context, id int) error
}

type Options struct {
	PerPage int
	// NewID stamps records created locally. Defaults to MillisClock.
	NewID func() int
}

// Snapshot is a copy of the view state for rendering.
type Snapshot struct {
	Status     Status
	Items      []directory.UserProfile
	Page       int
	TotalPages int
	Error      string
	Dialog     Dialog
}

type View struct {
	dir     Directory
	perPage int
	newID   func() int

	mu         sync.Mutex
	status     Status
	items      []directory.UserProfile
	page       int
	totalPages int
	errMsg     string
	dialog     Dialog
	note       *Notification
}

func New(dir Directory, opts Options) *View {
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.NewID == nil {
		opts.NewID = MillisClock()
	}
	return &View{
		dir:        dir,
		perPage:    opts.PerPage,
		newID:      opts.NewID,
		status:     StatusIdle,
		page:       1,
		totalPages: 1,
	}
}

// Mount loads the first page unless the view already holds data.
func (v *View) Mount(ctx context.Context) {
	v.mu.Lock()
	idle := v.status == StatusIdle
	v.mu.Unlock()
	if idle {
		v.load(ctx, 1)
	}
}

// SetPage always fetches, discarding local-only changes.
func (v *View) SetPage(ctx context.Context, page int) {
	if page < 1 {
		page = 1
	}
	v.load(ctx, page)
}

func (v *View) load(ctx context.Context, page int) {
	v.mu.Lock()
	v.status = StatusLoading
	v.page = page
	v.mu.Unlock()

	p, err := v.dir.ListUsers(ctx, page, v.perPage)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		logger.Warn("Listing page %d failed: %v", page, err)
		v.status = StatusError
		v.errMsg = fetchErrorBanner
		v.note = &Notification{Message: "Failed to fetch users", Severity: SeverityError}
		return
	}
	v.status = StatusReady
	v.errMsg = ""
	v.page = page
	v.items = append([]directory.UserProfile(nil), p.Items...)
	v.totalPages = p.TotalPages
	if v.totalPages < 1 {
		v.totalPages = 1
	}
}

func (v *View) OpenCreate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dialog = Dialog{Kind: DialogCreate}
}

// OpenEdit opens the edit dialog prefilled from the local record. It reports
// false when no such record is on the current page.
func (v *View) OpenEdit(id int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, u := range v.items {
		if u.ID == id {
			v.dialog = Dialog{
				Kind:   DialogEdit,
				EditID: id,
				Form:   directory.UserFormInput{FirstName: u.FirstName, LastName: u.LastName, Email: u.Email},
			}
			return true
		}
	}
	return false
}

func (v *View) CloseDialog() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dialog = Dialog{}
}

// Create validates the form, posts it, and on success appends the echoed
// record under a locally generated id. An invalid form keeps the dialog open;
// otherwise the dialog closes whatever the remote outcome.
func (v *View) Create(ctx context.Context, in directory.UserFormInput) error {
	if fe := forms.ValidateUser(in); fe != nil {
		v.mu.Lock()
		v.dialog = Dialog{Kind: DialogCreate, Form: in, Errors: fe}
		v.mu.Unlock()
		return apperr.Validation("Please correct the highlighted fields")
	}

	created, err := v.dir.CreateUser(ctx, in)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.dialog = Dialog{}
	if err != nil {
		logger.Warn("Create user %s failed: %v", in.Email, err)
		v.note = &Notification{Message: apperr.Message(err, "Failed to create user"), Severity: SeverityError}
		return err
	}
	created.ID = v.newID()
	v.items = AppendCreated(v.items, created)
	v.note = &Notification{Message: "User created successfully", Severity: SeveritySuccess}
	return nil
}

// Update merges the submitted fields into the local record before the remote
// call. A remote failure is reported but the local edit stays.
func (v *View) Update(ctx context.Context, id int, in directory.UserFormInput) error {
	if fe := forms.ValidateUser(in); fe != nil {
		v.mu.Lock()
		v.dialog = Dialog{Kind: DialogEdit, EditID: id, Form: in, Errors: fe}
		v.mu.Unlock()
		return apperr.Validation("Please correct the highlighted fields")
	}

	v.mu.Lock()
	v.items = MergeUpdate(v.items, id, in)
	v.dialog = Dialog{}
	v.mu.Unlock()

	err := v.dir.UpdateUser(ctx, id, in)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		logger.Warn("Update user %d failed: %v", id, err)
		v.note = &Notification{Message: apperr.Message(err, "Failed to update user"), Severity: SeverityError}
		return err
	}
	v.note = &Notification{Message: "User updated successfully", Severity: SeveritySuccess}
	return nil
}

// Delete removes the record locally once the remote delete succeeds. On
// failure the list is left as it is.
func (v *View) Delete(ctx context.Context, id int) error {
	err := v.dir.DeleteUser(ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		logger.Warn("Delete user %d failed: %v", id, err)
		v.note = &Notification{Message: apperr.Message(err, "Failed to delete user"), Severity: SeverityError}
		return err
	}
	v.items = RemoveByID(v.items, id)
	v.note = &Notification{Message: "User deleted successfully", Severity: SeveritySuccess}
	return nil
}

// TakeNotification returns the pending notification once.
func (v *View) TakeNotification() *Notification {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := v.note
	v.note = nil
	return n
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	d := v.dialog
	if d.Errors != nil {
		errs := make(forms.FieldErrors, len(d.Errors))
		for k, msg := range d.Errors {
			errs[k] = msg
		}
		d.Errors = errs
	}
	return Snapshot{
		Status:     v.status,
		Items:      append([]directory.UserProfile(nil), v.items...),
		Page:       v.page,
		TotalPages: v.totalPages,
		Error:      v.errMsg,
		Dialog:     d,
	}
}

// Reset unmounts the view.
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = StatusIdle
	v.items = nil
	v.page = 1
	v.totalPages = 1
	v.errMsg = ""
	v.dialog = Dialog{}
	v.note = nil
}
