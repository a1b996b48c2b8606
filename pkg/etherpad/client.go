package etherpad

import (
	"context"
	"time"
)

// Client is the typed façade over one backend Etherpad instance: one method
// per API operation, each building the parameter set for its endpoint and
// returning the normalized Result produced at the Connection boundary.
//
// Every method blocks until the call completes and returns exactly one
// Result, success or failure; callers wanting asynchrony run them from their
// own goroutines. Remote failures never surface as Go errors.
type Client struct {
	conn   *Connection
	padURL string
}

// NewClient builds a Client for one backend target.
func NewClient(cfg ConnectionConfig) (*Client, error) {
	conn, err := NewConnection(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, padURL: cfg.URL}, nil
}

// PadURL returns the public base URL used to build user-facing pad links,
// regardless of any internal URI the connection dials.
func (c *Client) PadURL() string {
	return c.padURL
}

// IsSecure reports whether calls to the backend use TLS.
func (c *Client) IsSecure() bool {
	return c.conn.IsSecure()
}

// Groups. Pads may belong to a group; group pads are not public and need a
// session to access.

// CreateGroup creates a new group. The id is returned in "groupID".
func (c *Client) CreateGroup(ctx context.Context) Result {
	return c.call(ctx, "createGroup", nil)
}

// CreateGroupIfNotExistsFor maps an application group to a backend group,
// creating one if needed. The id is returned in "groupID".
func (c *Client) CreateGroupIfNotExistsFor(ctx context.Context, groupMapper string) Result {
	return c.call(ctx, "createGroupIfNotExistsFor", Params{"groupMapper": groupMapper})
}

// DeleteGroup deletes a group. Pads in the group are not cascade-deleted;
// delete them explicitly first.
func (c *Client) DeleteGroup(ctx context.Context, groupID string) Result {
	return c.call(ctx, "deleteGroup", Params{"groupID": groupID})
}

// ListPads lists the pad ids of a group, in "padIDs".
func (c *Client) ListPads(ctx context.Context, groupID string) Result {
	return c.call(ctx, "listPads", Params{"groupID": groupID})
}

// ListAllGroups lists every group id, in "groupIDs".
func (c *Client) ListAllGroups(ctx context.Context) Result {
	return c.call(ctx, "listAllGroups", nil)
}

// CreateGroupPad creates a pad in a group, optionally with initial text. The
// pad id (groupID$padName) is returned in "padID".
func (c *Client) CreateGroupPad(ctx context.Context, groupID, padName, text string) Result {
	args := Params{"groupID": groupID, "padName": padName, "text": nil}
	if text != "" {
		args["text"] = text
	}
	return c.call(ctx, "createGroupPad", args)
}

// Authors. An author is the backend identity mapped from an external user
// login; the id is returned in "authorID".

// CreateAuthor creates a new author, optionally named.
func (c *Client) CreateAuthor(ctx context.Context, name string) Result {
	args := Params{"name": nil}
	if name != "" {
		args["name"] = name
	}
	return c.call(ctx, "createAuthor", args)
}

// CreateAuthorIfNotExistsFor maps an application login to a backend author,
// creating one if needed. The mapping is idempotent and stable for the
// lifetime of the user.
func (c *Client) CreateAuthorIfNotExistsFor(ctx context.Context, authorMapper, name string) Result {
	args := Params{"authorMapper": authorMapper, "name": nil}
	if name != "" {
		args["name"] = name
	}
	return c.call(ctx, "createAuthorIfNotExistsFor", args)
}

// ListPadsOfAuthor lists the pad ids an author has edited, in "padIDs".
func (c *Client) ListPadsOfAuthor(ctx context.Context, authorID string) Result {
	return c.call(ctx, "listPadsOfAuthor", Params{"authorID": authorID})
}

// GetAuthorName returns the author's name.
func (c *Client) GetAuthorName(ctx context.Context, authorID string) Result {
	return c.call(ctx, "getAuthorName", Params{"authorID": authorID})
}

// Sessions bind one author to one group until an expiry instant. The backend,
// not this client, enforces expiry. Several sessions may coexist for the same
// author/group pair.

// CreateSession creates a session valid until the given Unix-second instant.
// The id is returned in "sessionID".
func (c *Client) CreateSession(ctx context.Context, groupID, authorID string, validUntil int64) Result {
	return c.call(ctx, "createSession", Params{
		"groupID":    groupID,
		"authorID":   authorID,
		"validUntil": validUntil,
	})
}

// CreateSessionFor creates a session valid for the given duration from now.
func (c *Client) CreateSessionFor(ctx context.Context, groupID, authorID string, d time.Duration) Result {
	return c.CreateSession(ctx, groupID, authorID, time.Now().Add(d).Unix())
}

// CreateSessionUntil creates a session valid until the given instant.
func (c *Client) CreateSessionUntil(ctx context.Context, groupID, authorID string, validUntil time.Time) Result {
	return c.CreateSession(ctx, groupID, authorID, validUntil.Unix())
}

// DeleteSession deletes one session. Other sessions of the same author/group
// pair are unaffected.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) Result {
	return c.call(ctx, "deleteSession", Params{"sessionID": sessionID})
}

// GetSessionInfo returns a session's groupID, authorID and validUntil.
func (c *Client) GetSessionInfo(ctx context.Context, sessionID string) Result {
	return c.call(ctx, "getSessionInfo", Params{"sessionID": sessionID})
}

// ListSessionsOfGroup lists the sessions of a group.
func (c *Client) ListSessionsOfGroup(ctx context.Context, groupID string) Result {
	return c.call(ctx, "listSessionsOfGroup", Params{"groupID": groupID})
}

// ListSessionsOfAuthor lists the sessions of an author.
func (c *Client) ListSessionsOfAuthor(ctx context.Context, authorID string) Result {
	return c.call(ctx, "listSessionsOfAuthor", Params{"authorID": authorID})
}

// Pad content.

// ListAllPads lists every pad id, in "padIDs".
func (c *Client) ListAllPads(ctx context.Context) Result {
	return c.call(ctx, "listAllPads", nil)
}

// GetText returns the latest revision of the pad's text, in "text".
func (c *Client) GetText(ctx context.Context, padID string) Result {
	return c.call(ctx, "getText", Params{"padID": padID})
}

// GetTextAtRevision returns a specific revision of the pad's text.
func (c *Client) GetTextAtRevision(ctx context.Context, padID string, rev int) Result {
	return c.call(ctx, "getText", Params{"padID": padID, "rev": rev})
}

// SetText creates a new revision with the given text.
func (c *Client) SetText(ctx context.Context, padID, text string) Result {
	return c.call(ctx, "setText", Params{"padID": padID, "text": text})
}

// GetHTML returns the latest revision of the pad's content as HTML, in "html".
func (c *Client) GetHTML(ctx context.Context, padID string) Result {
	return c.call(ctx, "getHTML", Params{"padID": padID})
}

// GetHTMLAtRevision returns a specific revision of the pad's content as HTML.
func (c *Client) GetHTMLAtRevision(ctx context.Context, padID string, rev int) Result {
	return c.call(ctx, "getHTML", Params{"padID": padID, "rev": rev})
}

// SetHTML creates a new revision with the given HTML.
func (c *Client) SetHTML(ctx context.Context, padID, html string) Result {
	return c.call(ctx, "setHTML", Params{"padID": padID, "html": html})
}

// Pads. Group pads use the GROUPID$PADNAME naming scheme; plain pads must not
// contain a $.

// CreatePad creates a new pad, optionally with initial text.
func (c *Client) CreatePad(ctx context.Context, padID, text string) Result {
	args := Params{"padID": padID, "text": nil}
	if text != "" {
		args["text"] = text
	}
	return c.call(ctx, "createPad", args)
}

// DeletePad deletes a pad. A backend "not found" surfaces as a normalized
// error result.
func (c *Client) DeletePad(ctx context.Context, padID string) Result {
	return c.call(ctx, "deletePad", Params{"padID": padID})
}

// GetRevisionsCount returns the pad's revision count, in "revisions".
func (c *Client) GetRevisionsCount(ctx context.Context, padID string) Result {
	return c.call(ctx, "getRevisionsCount", Params{"padID": padID})
}

// ListAuthorsOfPad lists the author ids who edited a pad, in "authorIDs".
func (c *Client) ListAuthorsOfPad(ctx context.Context, padID string) Result {
	return c.call(ctx, "listAuthorsOfPad", Params{"padID": padID})
}

// GetReadOnlyID returns the pad's read-only id, in "readOnlyID", used to
// build a public read-only viewing URL.
func (c *Client) GetReadOnlyID(ctx context.Context, padID string) Result {
	return c.call(ctx, "getReadOnlyID", Params{"padID": padID})
}

// GetLastEdited returns the pad's last edit date as a Unix-millisecond
// timestamp, in "lastEdited".
func (c *Client) GetLastEdited(ctx context.Context, padID string) Result {
	return c.call(ctx, "getLastEdited", Params{"padID": padID})
}

// PadUsersCount returns the number of users currently editing the pad.
func (c *Client) PadUsersCount(ctx context.Context, padID string) Result {
	return c.call(ctx, "padUsersCount", Params{"padID": padID})
}

// PadUsers lists the users currently editing the pad.
func (c *Client) PadUsers(ctx context.Context, padID string) Result {
	return c.call(ctx, "padUsers", Params{"padID": padID})
}

// SetPublicStatus sets a group pad's public status.
func (c *Client) SetPublicStatus(ctx context.Context, padID string, public bool) Result {
	return c.call(ctx, "setPublicStatus", Params{"padID": padID, "publicStatus": public})
}

// GetPublicStatus returns a group pad's public status, in "publicStatus".
func (c *Client) GetPublicStatus(ctx context.Context, padID string) Result {
	return c.call(ctx, "getPublicStatus", Params{"padID": padID})
}

// SetPassword password-protects a group pad.
func (c *Client) SetPassword(ctx context.Context, padID, password string) Result {
	return c.call(ctx, "setPassword", Params{"padID": padID, "password": password})
}

// IsPasswordProtected reports a group pad's protection status, in
// "isPasswordProtected".
func (c *Client) IsPasswordProtected(ctx context.Context, padID string) Result {
	return c.call(ctx, "isPasswordProtected", Params{"padID": padID})
}

// SendClientsMessage sends a custom message to the pad's connected clients.
func (c *Client) SendClientsMessage(ctx context.Context, padID, msg string) Result {
	return c.call(ctx, "sendClientsMessage", Params{"padID": padID, "msg": msg})
}
