package obstore

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/huangsam/stockpulse/schema"
)

// productNamespace seeds the name-based product UUIDs.
var productNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/huangsam/stockpulse/product"))

// ProductIdentity derives a stable product id from the listing URL.
// Titles are only used when the URL is missing, and the source says so.
func ProductIdentity(rawURL, title string) (uuid.UUID, schema.IdentitySource) {
	if key := normalizeURL(rawURL); key != "" {
		return uuid.NewSHA1(productNamespace, []byte("url:"+key)), schema.IdentityFromURL
	}
	key := strings.ToLower(strings.Join(strings.Fields(title), " "))
	return uuid.NewSHA1(productNamespace, []byte("title:"+key)), schema.IdentityFromTitle
}

// normalizeURL drops the parts of a listing URL that do not identify the product.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawQuery = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
