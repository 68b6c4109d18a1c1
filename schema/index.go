package schema

// IndexRequest asks the store for one index on a dot path.
type IndexRequest struct {
	DotPath string
	Options IndexOptions
}

// Plan walks the schema tree and emits one request per index directive.
// A directive stops the walk from descending into that node's children, so a
// directive on an object or array indexes the whole subtree path. Plan runs
// once per collection at registry initialization.
func Plan(root Node, pathPrefix string) []IndexRequest {
	var reqs []IndexRequest
	Walk(pathPrefix, root, func(path string, n Node) bool {
		opts := n.IndexDirective()
		if opts == nil || path == "" {
			return true
		}
		reqs = append(reqs, IndexRequest{DotPath: path, Options: opts})
		return false
	})
	return reqs
}
