package routes

import (
	"net/http"

	"github.com/ntentasd/pdm-pipeline/pkg/utils"
)

func (app *App) listJobsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	jobs, err := app.Trainer.ListJobs()
	if err != nil {
		utils.ReplyJSON(w, http.StatusBadGateway, utils.Body{
			"error": "failed to reach trainer: " + err.Error(),
		})
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": jobs,
	})
}

func (app *App) getJobHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		utils.ReplyBadRequest(w, "missing or invalid job id")
		return
	}

	job, err := app.Trainer.GetJob(id)
	if err != nil {
		utils.ReplyJSON(w, http.StatusBadGateway, utils.Body{
			"error": "failed to reach trainer: " + err.Error(),
		})
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": job,
	})
}
