package auth

// Principal is the authenticated identity and role set derived from a
// verified token or credential check. It lives for a single request and is
// never persisted.
type Principal struct {
	Email string `json:"email"`
	Roles []Role `json:"roles"`
}

// NewPrincipal builds a principal with a normalized role set.
func NewPrincipal(email string, roles ...Role) *Principal {
	return &Principal{
		Email: email,
		Roles: SplitAuthorities(JoinAuthorities(roles)),
	}
}

// HasRole reports membership in the principal's role set.
func (p *Principal) HasRole(role Role) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports a non empty intersection with the given set.
func (p *Principal) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

// PrimaryRole returns the single role the account model carries. The token
// format supports several; accounts hold exactly one today.
func (p *Principal) PrimaryRole() Role {
	if p == nil || len(p.Roles) == 0 {
		return ""
	}
	return p.Roles[0]
}

func principalFromClaims(claims AuthClaims) (*Principal, error) {
	if claims == nil {
		return nil, ErrTokenMalformed
	}

	if claims.Email() == "" {
		return nil, ErrMissingPrincipal
	}

	return &Principal{
		Email: claims.Email(),
		Roles: claims.Roles(),
	}, nil
}
