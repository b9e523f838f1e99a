package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	recaptcha "cloud.google.com/go/recaptchaenterprise/v2/apiv1"
	"cloud.google.com/go/recaptchaenterprise/v2/apiv1/recaptchaenterprisepb"
	"github.com/gin-gonic/gin"
	"google.golang.org/api/option"

	"hamrotask/dto"
	"hamrotask/logging"
)

func CaptchaController(router *gin.Engine) {
	routes := router.Group("/auth")
	{
		routes.POST("/captcha", func(c *gin.Context) {
			VerifyCaptcha(c)
		})
	}
}

func VerifyCaptcha(c *gin.Context) {
	var req dto.CaptchaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{
			"success": false,
			"message": "Invalid request format",
		})
		return
	}

	if req.Token == "" {
		c.JSON(400, gin.H{
			"success": false,
			"message": "Token is required",
		})
		return
	}

	userIPAddress := getClientIP(c)
	userAgent := c.Request.UserAgent()

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT_ID")
	recaptchaKey := os.Getenv("RECAPTCHA_SITE_KEY")
	credentialsPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")

	result, err := createAssessment(c.Request.Context(), projectID, recaptchaKey, credentialsPath, req.Token, req.Action, userIPAddress, userAgent)

	if err != nil {
		logging.Logger.Error("verify recaptcha", "error", err)
		c.JSON(500, gin.H{
			"success": false,
			"message": "Internal server error",
		})
		return
	}

	if result == nil {
		c.JSON(400, gin.H{
			"success": false,
			"message": "reCAPTCHA verification failed",
		})
		return
	}

	c.JSON(200, gin.H{
		"success": true,
		"score":   result.Score,
		"action":  result.Action,
		"reasons": result.Reasons,
		"message": "Captcha verified successfully",
	})
}

func getClientIP(c *gin.Context) string {
	userIPAddress := c.ClientIP()
	if userIPAddress == "" {
		userIPAddress = c.Request.RemoteAddr
	}
	// Behind a proxy chain, take the first hop.
	if idx := strings.Index(userIPAddress, ","); idx != -1 {
		userIPAddress = strings.TrimSpace(userIPAddress[:idx])
	}
	return userIPAddress
}

func createAssessment(ctx context.Context, projectID, recaptchaKey, credentialsPath, token, action, userIPAddress, userAgent string) (*dto.AssessmentResult, error) {
	client, err := recaptcha.NewClient(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		logging.Logger.Error("create recaptcha client", "error", err)
		return nil, err
	}
	defer client.Close()

	projectPath := fmt.Sprintf("projects/%s", projectID)
	req := &recaptchaenterprisepb.CreateAssessmentRequest{
		Parent: projectPath,
		Assessment: &recaptchaenterprisepb.Assessment{
			Event: &recaptchaenterprisepb.Event{
				Token:         token,
				SiteKey:       recaptchaKey,
				UserIpAddress: userIPAddress,
				UserAgent:     userAgent,
			},
		},
	}

	response, err := client.CreateAssessment(ctx, req)
	if err != nil {
		logging.Logger.Error("create assessment", "error", err)
		return nil, err
	}

	if response.TokenProperties == nil || !response.TokenProperties.Valid {
		if response.TokenProperties != nil {
			logging.Logger.Warn("recaptcha token invalid", "reason", response.TokenProperties.InvalidReason.String())
		} else {
			logging.Logger.Warn("recaptcha token properties missing")
		}
		return nil, nil
	}

	if action != "" && response.TokenProperties.Action != action {
		logging.Logger.Warn("recaptcha action mismatch", "expected", action, "got", response.TokenProperties.Action)
		return nil, nil
	}

	result := &dto.AssessmentResult{
		Action: response.TokenProperties.Action,
	}
	if response.RiskAnalysis != nil {
		result.Score = response.RiskAnalysis.Score

		if len(response.RiskAnalysis.Reasons) > 0 {
			reasons := make([]string, len(response.RiskAnalysis.Reasons))
			for i, reason := range response.RiskAnalysis.Reasons {
				reasons[i] = reason.String()
			}
			result.Reasons = reasons
		}
	}

	return result, nil
}
