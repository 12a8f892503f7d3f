// Package api wraps the shop backend's admin resources: products,
// categories, orders, company orders, PC components, the home slider and the
// activity log.
//
// Every call goes through a Doer, normally a *dashboard.Client, so requests
// carry the session token and a 401 ends the session. List calls are served
// from a querycache.Cache and each mutation invalidates the list it changed.
//
// # What this package must NOT do
//
//   - Read or write the session directly.
//   - Show server error text to users. Errors are *dashboard.APIError values;
//     pass them to dashboard.UserMessage.
package api
