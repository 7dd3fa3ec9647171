package k6

import (
	"fmt"
	"sort"
)

// Backend identifies one of the fixed backend services load tests run against
type Backend struct {
	// Component is the Tempo stack component name (e.g. "distributor")
	Component string

	// Port is the HTTP port the component's Service exposes
	Port int32

	// Path is the HTTP path the load test drives requests against
	Path string
}

// Backends is the fixed set of backend services the toolchain targets.
// Component Services are created by the Tempo operator as
// tempo-<stack>-<component>.
var Backends = []Backend{
	{Component: "distributor", Port: 3200, Path: "/ready"},
	{Component: "ingester", Port: 3200, Path: "/ready"},
	{Component: "querier", Port: 3200, Path: "/ready"},
	{Component: "query-frontend", Port: 3200, Path: "/ready"},
	{Component: "compactor", Port: 3200, Path: "/ready"},
	{Component: "gateway", Port: 8080, Path: "/ready"},
}

// ValidationBackend is the backend the validation smoke run targets
var ValidationBackend = Backend{Component: "query-frontend", Port: 3200, Path: "/ready"}

// LookupBackend returns the backend for a component name
func LookupBackend(component string) (Backend, bool) {
	for _, b := range Backends {
		if b.Component == component {
			return b, true
		}
	}
	return Backend{}, false
}

// BackendNames returns the sorted component names of the fixed backend set
func BackendNames() []string {
	names := make([]string, 0, len(Backends))
	for _, b := range Backends {
		names = append(names, b.Component)
	}
	sort.Strings(names)
	return names
}

// ServiceName returns the Service name the Tempo operator creates for a component
func (b Backend) ServiceName(stack string) string {
	return fmt.Sprintf("tempo-%s-%s", stack, b.Component)
}

// TargetURL returns the in-cluster URL the load test drives requests against
func (b Backend) TargetURL(stack, namespace string) string {
	return fmt.Sprintf("http://%s.%s.svc.cluster.local:%d%s", b.ServiceName(stack), namespace, b.Port, b.Path)
}
