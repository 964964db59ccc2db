// Package client talks to the FoodKeeper backend over HTTP.
//
// # Overview
//
//  1. The transport contract is split in two interfaces: AuthAPI (login,
//     register, current user) and InventoryAPI (food items, barcode lookup,
//     image analysis). Client combines them.
//  2. HTTPClient is the only implementation. It is built on resty and is the
//     single outbound path: a request middleware reads the credential from a
//     TokenSource on every request and attaches "Authorization: Bearer <token>"
//     when one is present. The credential is never cached on the client.
//
// # Error Handling
//
// Failures are reported as sentinel errors that callers match with errors.Is:
// ErrUnavailable (network), ErrUnauthorized (401/403), ErrValidation
// (400/409/422) and ErrNotFound (404). Non-2xx responses are returned as
// *APIError, which carries the status code and the backend's detail message
// and unwraps to the matching sentinel.
//
// No retries and no caching happen here.
package client
