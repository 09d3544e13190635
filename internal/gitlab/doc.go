// Package gitlab is a minimal client for the GitLab REST listing endpoints
// used by discovery.
//
// Only two endpoints are consumed:
//
//	GET <base>/groups?per_page=<N>&page=<p>
//	GET <base>/groups/<group_id>/projects
//
// Every request carries the configured credential. Any non-200 response is
// returned as an [*APIError]; any failure to execute the request or decode
// its body is returned as a [*TransportError]. Callers treat both as fatal.
package gitlab
