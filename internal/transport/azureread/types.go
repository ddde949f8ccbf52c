package azureread

// readOperation is the poll response of the Read analyze operation.
type readOperation struct {
	Status        string         `json:"status"`
	AnalyzeResult *analyzeResult `json:"analyzeResult,omitempty"`
}

type analyzeResult struct {
	Version     string       `json:"version,omitempty"`
	ReadResults []readResult `json:"readResults"`
}

type readResult struct {
	Page  int        `json:"page"`
	Lines []readLine `json:"lines"`
}

type readLine struct {
	Text string `json:"text"`
}

// errorEnvelope is the error body returned on rejected submissions.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// lines flattens recognized lines across pages in reading order.
func (op *readOperation) lines() []string {
	out := []string{}
	if op.AnalyzeResult == nil {
		return out
	}
	for _, page := range op.AnalyzeResult.ReadResults {
		for _, l := range page.Lines {
			out = append(out, l.Text)
		}
	}
	return out
}
