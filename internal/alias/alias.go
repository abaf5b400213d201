// Package alias produces the random display names handed to chat clients when
// they connect.
package alias

import (
	"strings"

	"github.com/samber/lo"
)

// Separator joins the subject and place parts of an alias.
const Separator = "-"

var (
	subjects = []string{"Komodo", "Orangutan", "Tiger", "Cendrawasih", "Gajah", "Banteng", "Merak"}
	places   = []string{"Jakarta", "Bandung", "Surabaya", "Medan", "Makassar", "Denpasar", "Ambon"}
)

// Generate returns a "Subject-Place" alias such as "Tiger-Jakarta". Each part
// is picked uniformly at random; two calls may return the same alias.
func Generate() string {
	return lo.Sample(subjects) + Separator + lo.Sample(places)
}

// Split breaks an alias into its subject and place parts.
func Split(a string) (subject, place string, ok bool) {
	return strings.Cut(a, Separator)
}

// Subjects returns a copy of the subject word list.
func Subjects() []string {
	return append([]string(nil), subjects...)
}

// Places returns a copy of the place word list.
func Places() []string {
	return append([]string(nil), places...)
}
