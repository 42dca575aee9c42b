package http

type Status string

const (
	// StatusOK is used for health-check responses.
	StatusOK Status = "OK"

	// StatusSuccess indicates an operation completed successfully.
	StatusSuccess Status = "success"

	// StatusError indicates an operation failed.
	StatusError Status = "error"
)

// Response represents the standard API response format.
type Response struct {
	Status   Status   `json:"status,omitempty"`
	Error    string   `json:"error,omitempty"`
	Node     string   `json:"node,omitempty"`
	Key      *uint32  `json:"key,omitempty"`
	Position *uint32  `json:"position,omitempty"`
	Nodes    []string `json:"nodes,omitempty"`
	Count    *int     `json:"count,omitempty"`
	Checksum string   `json:"checksum,omitempty"`
}

func NewOKResponse() Response {
	return Response{Status: StatusOK}
}

func NewLookupResponse(node string, key, position uint32) Response {
	return Response{Status: StatusSuccess, Node: node, Key: &key, Position: &position}
}

func NewNodesResponse(nodes []string, checksum string) Response {
	count := len(nodes)
	return Response{Status: StatusSuccess, Nodes: nodes, Count: &count, Checksum: checksum}
}

func NewCountResponse(count int) Response {
	return Response{Status: StatusSuccess, Count: &count}
}

func NewErrorResponse(err string) Response {
	return Response{Status: StatusError, Error: err}
}
