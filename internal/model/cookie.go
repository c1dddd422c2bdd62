package model

// CookieSet is the authenticated session state for one (owner, account)
// pair: cookie name -> cookie value. A refresh always replaces the whole
// set, never merges, so stale cookies cannot survive a new login.
type CookieSet map[string]string

func (c CookieSet) Clone() CookieSet {
	out := make(CookieSet, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
