package delphix

import (
	"fmt"
	"strings"
)

// ResourcePrefix is the path under which every API resource lives.
const ResourcePrefix = "/resources/json/delphix/"

// Resource names an API resource collection.
type Resource string

const (
	ResourceAlert        Resource = "alert"
	ResourceContainer    Resource = "container"
	ResourceDatabase     Resource = "database"
	ResourceEnvironment  Resource = "environment"
	ResourceGroup        Resource = "group"
	ResourceHost         Resource = "host"
	ResourceJob          Resource = "job"
	ResourceLogin        Resource = "login"
	ResourcePolicy       Resource = "policy"
	ResourceRepository   Resource = "repository"
	ResourceSession      Resource = "session"
	ResourceSnapshot     Resource = "snapshot"
	ResourceSource       Resource = "source"
	ResourceSourceConfig Resource = "sourceconfig"
	ResourceTimeflow     Resource = "timeflow"
	ResourceUser         Resource = "user"
)

var allResources = []Resource{
	ResourceAlert,
	ResourceContainer,
	ResourceDatabase,
	ResourceEnvironment,
	ResourceGroup,
	ResourceHost,
	ResourceJob,
	ResourceLogin,
	ResourcePolicy,
	ResourceRepository,
	ResourceSession,
	ResourceSnapshot,
	ResourceSource,
	ResourceSourceConfig,
	ResourceTimeflow,
	ResourceUser,
}

// Resources returns every known resource in a stable order.
func Resources() []Resource {
	out := make([]Resource, len(allResources))
	copy(out, allResources)
	return out
}

// ParseResource maps a name such as "database" or "SourceConfig" to its Resource.
func ParseResource(name string) (Resource, error) {
	n := Resource(strings.ToLower(strings.TrimSpace(name)))
	for _, r := range allResources {
		if r == n {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown resource %q", name)
}

// Path returns the resource path relative to the server base URL.
func (r Resource) Path() string {
	return ResourcePrefix + string(r)
}

func (r Resource) String() string {
	return string(r)
}

// ResourceURL joins a base URL and a resource path.
func ResourceURL(baseURL string, r Resource) string {
	return strings.TrimRight(baseURL, "/") + r.Path()
}
