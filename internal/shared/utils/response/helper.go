package response

import "github.com/gin-gonic/gin"

// RespondJSON writes the standard envelope. Controllers never call c.JSON
// directly, which keeps the wire shape identical across features.
func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}
