package auth

// AuthorizeRoles succeeds iff the principal's role set intersects the
// required set. It runs after authentication on privilege sensitive routes:
// a customer with a perfectly valid session still fails the admin surface.
// Pure function, safe for unlimited concurrent use.
func AuthorizeRoles(principal *Principal, required ...Role) error {
	if principal == nil || principal.Email == "" {
		return ErrMissingPrincipal
	}

	if len(required) == 0 {
		return nil
	}

	if principal.HasAnyRole(required...) {
		return nil
	}

	return ErrForbidden
}

// AuthorizeClaims applies the same gate directly to verified claims, for
// callers holding a token payload rather than a principal.
func AuthorizeClaims(claims AuthClaims, required ...Role) error {
	if claims == nil {
		return ErrMissingPrincipal
	}

	principal, err := principalFromClaims(claims)
	if err != nil {
		return err
	}

	return AuthorizeRoles(principal, required...)
}
