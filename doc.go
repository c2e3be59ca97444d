// Package auth implements the stateless authentication subsystem for the
// Zentro platform: issuance, transport, and verification of signed session
// tokens for customers, restaurant owners, and admins.
//
// Token lifecycle:
//   - TokenService signs a compact HMAC token carrying the account email and
//     a comma joined authorities claim, valid for a fixed 24h window. Tokens
//     are immutable once issued; there is no revocation list, expiry is the
//     only exit. Verification takes the current time as an argument so the
//     clock is never read implicitly on the hot path.
//   - Transport accepts tokens from the Authorization header or from the
//     zentro_jwt cookie. Historical cookie writers emitted percent encoded
//     values, sometimes with a "Bearer " prefix baked in; the read path
//     normalizes every legacy form while the write path emits exactly one
//     canonical encoding.
//
// Credentials:
//   - UserProvider checks local email/password pairs against bcrypt hashes.
//     Unknown accounts and wrong passwords are indistinguishable to callers.
//   - Federated (Google) sign in verifies an ID token assertion and either
//     matches an existing federated account or provisions a new one together
//     with its empty cart in a single transaction.
//
// Authorization:
//   - Roles are a closed set (ROLE_CUSTOMER, ROLE_RESTAURANT_OWNER,
//     ROLE_ADMIN) serialized to the wire string only at the codec boundary.
//     AuthorizeRoles gates the admin surface after authentication succeeds.
package auth
