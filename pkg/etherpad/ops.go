package etherpad

import (
	"context"
	"fmt"
)

// operation declares how one Etherpad API method goes on the wire: its HTTP
// verb and which parameters travel in the query string versus the JSON body.
// Reads are GETs, mutations are POSTs. The typed methods on Client are thin
// parameter builders dispatched through this table.
type operation struct {
	post  bool
	query []string
	body  []string
}

var operations = map[string]operation{
	// Groups
	"createGroup":               {},
	"createGroupIfNotExistsFor": {post: true, query: []string{"groupMapper"}},
	"deleteGroup":               {post: true, query: []string{"groupID"}},
	"listPads":                  {query: []string{"groupID"}},
	"listAllGroups":             {},
	"createGroupPad":            {query: []string{"groupID", "padName", "text"}},

	// Authors
	"createAuthor":               {post: true, query: []string{"name"}},
	"createAuthorIfNotExistsFor": {post: true, query: []string{"authorMapper", "name"}},
	"listPadsOfAuthor":           {query: []string{"authorID"}},
	"getAuthorName":              {query: []string{"authorID"}},

	// Sessions
	"createSession":        {post: true, query: []string{"groupID", "authorID", "validUntil"}},
	"deleteSession":        {post: true, query: []string{"sessionID"}},
	"getSessionInfo":       {query: []string{"sessionID"}},
	"listSessionsOfGroup":  {query: []string{"groupID"}},
	"listSessionsOfAuthor": {query: []string{"authorID"}},

	// Pad content
	"listAllPads": {},
	"getText":     {query: []string{"padID", "rev"}},
	"setText":     {post: true, query: []string{"padID"}, body: []string{"text"}},
	"getHTML":     {query: []string{"padID", "rev"}},
	"setHTML":     {post: true, query: []string{"padID"}, body: []string{"html"}},

	// Pads
	"createPad":           {post: true, query: []string{"padID"}, body: []string{"text"}},
	"deletePad":           {post: true, query: []string{"padID"}},
	"getRevisionsCount":   {query: []string{"padID"}},
	"listAuthorsOfPad":    {query: []string{"padID"}},
	"getReadOnlyID":       {query: []string{"padID"}},
	"getLastEdited":       {query: []string{"padID"}},
	"padUsersCount":       {query: []string{"padID"}},
	"padUsers":            {query: []string{"padID"}},
	"setPublicStatus":     {post: true, query: []string{"padID", "publicStatus"}},
	"getPublicStatus":     {query: []string{"padID"}},
	"setPassword":         {post: true, query: []string{"padID", "password"}},
	"isPasswordProtected": {query: []string{"padID"}},
	"sendClientsMessage":  {post: true, query: []string{"padID", "msg"}},
}

// call dispatches one API method through the descriptor table, splitting args
// into query and body parameter sets. An unknown method name is a programmer
// error and panics.
func (c *Client) call(ctx context.Context, method string, args Params) Result {
	op, ok := operations[method]
	if !ok {
		panic(fmt.Sprintf("etherpad: unknown API method %q", method))
	}
	queryArgs := make(Params, len(op.query))
	for _, name := range op.query {
		if v, ok := args[name]; ok {
			queryArgs[name] = v
		}
	}
	if !op.post {
		return c.conn.Get(ctx, method, queryArgs)
	}
	bodyArgs := make(Params, len(op.body))
	for _, name := range op.body {
		if v, ok := args[name]; ok {
			bodyArgs[name] = v
		}
	}
	return c.conn.Post(ctx, method, queryArgs, bodyArgs)
}
