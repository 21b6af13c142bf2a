package httpapi

import (
	"net/http"
)

// HandleState returns the full projection for the current controller state.
func (a *API) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.ctrl.View())
}

// HandleStats returns just the derived progress figures.
func (a *API) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.ctrl.View().Stats)
}

func (a *API) HandleStartPractice(w http.ResponseWriter, r *http.Request) {
	if err := a.ctrl.StartPractice(); err != nil {
		a.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.ctrl.View())
}

func (a *API) HandleStartExam(w http.ResponseWriter, r *http.Request) {
	if err := a.ctrl.StartExam(); err != nil {
		a.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.ctrl.View())
}

func (a *API) HandleStartReview(w http.ResponseWriter, r *http.Request) {
	if err := a.ctrl.StartReview(); err != nil {
		a.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.ctrl.View())
}

func (a *API) HandleGoHome(w http.ResponseWriter, r *http.Request) {
	a.ctrl.GoHome()
	writeJSON(w, http.StatusOK, a.ctrl.View())
}

// HandleSelect highlights an option in practice or review; nothing is
// recorded until the confirm action.
func (a *API) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var request selectRequest
	if !decodeBody(w, r, &request) {
		return
	}
	if err := a.ctrl.SelectAnswer(request.Option); err != nil {
		a.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.ctrl.View())
}

func (a *API) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	if err := a.ctrl.Confirm(r.Context()); err != nil {
		a.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.ctrl.View())
}

func (a *API) HandleNext(w http.ResponseWriter, r *http.Request) {
	if err := a.ctrl.Next(); err != nil {
		a.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.ctrl.View())
}

func (a *API) HandlePrev(w http.ResponseWriter, r *http.Request) {
	if err := a.ctrl.Prev(); err != nil {
		a.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.ctrl.View())
}

// HandleJump moves the exam pointer to an arbitrary grid position.
func (a *API) HandleJump(w http.ResponseWriter, r *http.Request) {
	var request jumpRequest
	if !decodeBody(w, r, &request) {
		return
	}
	if err := a.ctrl.JumpTo(request.Index); err != nil {
		a.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.ctrl.View())
}

// HandleAnswer records an exam answer for the question at a grid position
// without moving the pointer.
func (a *API) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	var request answerRequest
	if !decodeBody(w, r, &request) {
		return
	}
	if err := a.ctrl.AnswerAt(request.Index, request.Option); err != nil {
		a.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.ctrl.View())
}

func (a *API) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if _, err := a.ctrl.SubmitExam(r.Context()); err != nil {
		a.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.ctrl.View())
}

func (a *API) HandleGetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := questionIDParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, noteResponse{QuestionID: id, Text: a.ctrl.Note(id)})
}

func (a *API) HandleSetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := questionIDParam(w, r)
	if !ok {
		return
	}

	var request noteRequest
	if !decodeBody(w, r, &request) {
		return
	}
	if err := a.ctrl.SetNote(r.Context(), id, request.Text); err != nil {
		a.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, noteResponse{QuestionID: id, Text: request.Text})
}
