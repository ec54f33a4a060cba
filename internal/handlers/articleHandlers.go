package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/utils"
)

type ArticleHandler struct {
	articleService services.ArticleService
}

func NewArticleHandler(articleService services.ArticleService) *ArticleHandler {
	return &ArticleHandler{articleService: articleService}
}

func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	page, limit := utils.ParsePagination(r, 10, 50)
	articles, err := h.articleService.ListArticles(r.Context(), r.URL.Query().Get("category"), page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, articles)
}

// ReadArticle returns the article and counts a view.
func (h *ArticleHandler) ReadArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.articleService.ReadArticle(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, article)
}

func (h *ArticleHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var payload models.ArticlePayload
	if !utils.DecodeAndValidate(w, r, &payload) {
		return
	}
	article, err := h.articleService.CreateArticle(r.Context(), &payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, article)
}

func (h *ArticleHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	var payload models.ArticleUpdate
	if !utils.DecodeAndValidate(w, r, &payload) {
		return
	}
	article, err := h.articleService.UpdateArticle(r.Context(), id, &payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, article)
}

func (h *ArticleHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	if err := h.articleService.DeleteArticle(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ArticleHandler) react(w http.ResponseWriter, r *http.Request, like bool) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	id, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	article, err := h.articleService.React(r.Context(), id, userID, like)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, article)
}

func (h *ArticleHandler) Like(w http.ResponseWriter, r *http.Request)    { h.react(w, r, true) }
func (h *ArticleHandler) Dislike(w http.ResponseWriter, r *http.Request) { h.react(w, r, false) }
