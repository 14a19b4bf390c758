package models

// Request is the decoded form of one inbound line. The Type field is the
// discriminant; every other field is only meaningful for some types.
// Optional numeric fields are pointers so that absent and zero can be told
// apart.
type Request struct {
	Type        string   `json:"type"`
	Name        string   `json:"name,omitempty"`
	Room        string   `json:"room,omitempty"`
	Text        string   `json:"text,omitempty"`
	Answers     []string `json:"answers,omitempty"`
	Correct     *int     `json:"correct,omitempty"`
	TimeLimitMs *int     `json:"time_limit_ms,omitempty"`
	QuestionID  *int     `json:"question_id,omitempty"`
	Answer      *int     `json:"answer,omitempty"`
}

type ErrorMessage struct {
	Error string `json:"error"`
}

type CreateOK struct {
	Type string `json:"type"`
	Room string `json:"room"`
	ID   int    `json:"id"`
	Host bool   `json:"host"`
}

type AddQuestionOK struct {
	Type       string `json:"type"`
	QuestionID int    `json:"question_id"`
}

type LobbyOpen struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type LobbyUpdate struct {
	Type    string   `json:"type"`
	Players []string `json:"players"`
	Room    string   `json:"room"`
}

type JoinOK struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
	Host bool   `json:"host,omitempty"`
}

type QuestionMessage struct {
	Type        string   `json:"type"`
	QuestionID  int      `json:"question_id"`
	Text        string   `json:"text"`
	Answers     []string `json:"answers"`
	TimeLimitMs int      `json:"time_limit_ms"`
}

type PlayerResult struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Total  int    `json:"total"`
}

type QuestionResultsMessage struct {
	Type    string         `json:"type"`
	Correct int            `json:"correct"`
	Results []PlayerResult `json:"results"`
}

type RankingEntry struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

type FinalResultsMessage struct {
	Type    string         `json:"type"`
	Ranking []RankingEntry `json:"ranking"`
}
