package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lucaspires-source/authdash/internal/directory"
	"github.com/lucaspires-source/authdash/internal/listing"
	"github.com/lucaspires-source/authdash/internal/logger"
)

func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view := a.view(profileFrom(r))
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 0 {
		page = 0
	}
	snap := view.Snapshot()
	switch {
	case snap.Status == listing.StatusIdle && page == 0:
		view.Mount(ctx)
	case snap.Status == listing.StatusIdle, snap.Status == listing.StatusError, page != 0 && page != snap.Page:
		if page == 0 {
			page = snap.Page
		}
		view.SetPage(ctx, page)
	}

	switch {
	case q.Get("dialog") == "create":
		view.OpenCreate()
	case q.Get("edit") != "":
		if id, err := strconv.Atoi(q.Get("edit")); err == nil {
			view.OpenEdit(id)
		}
	}

	data := a.baseData(r)
	if n := view.TakeNotification(); n != nil {
		data.Flash = n.Message
		data.FlashKind = "ok"
		if n.Severity == listing.SeverityError {
			data.FlashKind = "err"
		}
	}
	data.Listing = view.Snapshot()
	for p := 1; p <= data.Listing.TotalPages; p++ {
		data.Pages = append(data.Pages, p)
	}
	if data.Listing.Page > 1 {
		data.PrevPage = data.Listing.Page - 1
	}
	if data.Listing.Page < data.Listing.TotalPages {
		data.NextPage = data.Listing.Page + 1
	}
	a.renderPage(w, r, "dashboard", data)
}

func userForm(r *http.Request) directory.UserFormInput {
	_ = r.ParseForm()
	return directory.UserFormInput{
		FirstName: strings.TrimSpace(r.Form.Get("first_name")),
		LastName:  strings.TrimSpace(r.Form.Get("last_name")),
		Email:     strings.TrimSpace(r.Form.Get("email")),
	}
}

func userID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// The mutation handlers always return to the dashboard; outcomes surface as
// the view's notification or as field errors in a still-open dialog.

func (a *App) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	in := userForm(r)
	if err := a.view(profileFrom(r)).Create(r.Context(), in); err != nil {
		logger.Info("Create user %s from %s failed: %v", in.Email, remoteIP(r), err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	in := userForm(r)
	if err := a.view(profileFrom(r)).Update(r.Context(), id, in); err != nil {
		logger.Info("Update user %d from %s failed: %v", id, remoteIP(r), err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if err := a.view(profileFrom(r)).Delete(r.Context(), id); err != nil {
		logger.Info("Delete user %d from %s failed: %v", id, remoteIP(r), err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleDialogClose(w http.ResponseWriter, r *http.Request) {
	a.view(profileFrom(r)).CloseDialog()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
