package types

import (
	"regexp"
	"strings"
)

// publicForge is the only host for which bugs and homepage are derived.
const publicForge = "github.com"

var (
	// user@host:org/repo
	scpRepoRe = regexp.MustCompile(`^([^/@]+)@([^:/]+):([^/]+)/(.*)$`)
	// scheme://[user@]host/org/repo
	urlRepoRe = regexp.MustCompile(`^(https|git|git\+ssh|git\+https)://([^/:]+)/([^/:]+)/(.*)$`)
)

// SetRepository records repo as the manifest repository and, for GitHub
// remotes, rewrites the URL to its canonical form and derives bugs.url and
// homepage. Unrecognized forms are stored verbatim.
func (m *Manifest) SetRepository(repo string) {
	if g := scpRepoRe.FindStringSubmatch(repo); g != nil {
		m.Repository = &Repository{Type: "git", URL: repo}
		m.setForge(g[1], g[2], "git+ssh", g[3], g[4])
		return
	}
	if g := urlRepoRe.FindStringSubmatch(repo); g != nil {
		m.Repository = &Repository{Type: "git", URL: repo}
		proto, host := g[1], g[2]
		if proto == "https" {
			proto = "git+https"
		}
		gitUser := ""
		if at := strings.LastIndex(host, "@"); at >= 0 {
			gitUser, host = host[:at], host[at+1:]
		}
		m.setForge(gitUser, host, proto, g[3], g[4])
		return
	}
	m.Repository = &Repository{Type: "git", URL: repo}
}

func (m *Manifest) setForge(gitUser, host, proto, user, repo string) {
	if host != publicForge {
		return
	}
	repo = strings.TrimSuffix(repo, ".git")
	var b strings.Builder
	b.WriteString(proto)
	b.WriteString("://")
	if gitUser != "" {
		b.WriteString(gitUser)
		b.WriteString("@")
	}
	b.WriteString(host + "/" + user + "/" + repo + ".git")
	m.Repository.URL = b.String()

	base := "https://" + publicForge + "/" + user + "/" + repo
	m.Bugs = &Bugs{URL: base + "/issues"}
	m.Homepage = base + "#readme"
}
