package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UploadImage stores an image sent as the multipart field "image".
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "no image provided")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "could not read upload")
		return
	}
	defer src.Close()

	uploaded, err := a.uploads.Save(src, file.Header.Get("Content-Type"))
	if err != nil {
		a.respondServiceError(c, err, "upload image")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Image uploaded successfully", "image": uploaded})
}
