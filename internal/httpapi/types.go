package httpapi

type selectRequest struct {
	Option int `json:"option"`
}

type jumpRequest struct {
	Index int `json:"index"`
}

type answerRequest struct {
	Index  int `json:"index"`
	Option int `json:"option"`
}

type noteRequest struct {
	Text string `json:"text"`
}

type noteResponse struct {
	QuestionID int    `json:"questionId"`
	Text       string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}
