package utils

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"autostore_back_end/internal/database"
	"autostore_back_end/internal/models"
)

// Actions d'audit prédéfinies
const (
	ActionOrderCreate       = "order.create"
	ActionOrderCancel       = "order.cancel"
	ActionOrderCapture      = "order.capture"
	ActionOrderStatusChange = "order.status_change"

	ActionVehicleCreate = "vehicle.create"
	ActionVehicleUpdate = "vehicle.update"
	ActionVehicleDelete = "vehicle.delete"

	ActionLoginSuccess = "auth.login_success"
	ActionLoginFailed  = "auth.login_failed"
	ActionUserCreate   = "user.create"
)

// Resources d'audit
const (
	ResourceOrder   = "order"
	ResourceVehicle = "vehicle"
	ResourceAuth    = "auth"
	ResourceUser    = "user"
)

// LogAction enregistre une action réussie dans le journal d'audit (asynchrone,
// jamais bloquant pour la requête).
func LogAction(c *gin.Context, action, resource, resourceID string, oldValue, newValue any) {
	entry := buildEntry(c, action, resource, resourceID, oldValue, newValue, true, "")
	go func() {
		if err := insertEntry(entry); err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
		}
	}()
}

// LogFailedAction enregistre une action échouée.
func LogFailedAction(c *gin.Context, action, resource, resourceID, errorMsg string) {
	entry := buildEntry(c, action, resource, resourceID, nil, nil, false, errorMsg)
	go func() {
		if err := insertEntry(entry); err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
		}
	}()
}

func buildEntry(c *gin.Context, action, resource, resourceID string, oldValue, newValue any, success bool, errorMsg string) models.AuditLog {
	var oldValueStr, newValueStr string
	if oldValue != nil {
		if raw, err := json.Marshal(oldValue); err == nil {
			oldValueStr = string(raw)
		}
	}
	if newValue != nil {
		if raw, err := json.Marshal(newValue); err == nil {
			newValueStr = string(raw)
		}
	}

	return models.AuditLog{
		ID:         gocql.TimeUUID(),
		UserID:     c.GetString("user_id_str"),
		UserEmail:  c.GetString("email"),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		OldValue:   oldValueStr,
		NewValue:   newValueStr,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Success:    success,
		ErrorMsg:   errorMsg,
		Timestamp:  time.Now(),
	}
}

func insertEntry(entry models.AuditLog) error {
	session := database.GetAuditSession()
	if session == nil {
		// Audit désactivé (Scylla non configuré).
		return nil
	}

	return session.Query(`
		INSERT INTO audit_logs (
			id, user_id, user_email, action, resource, resource_id,
			old_value, new_value, ip_address, user_agent, success,
			error_msg, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.UserEmail, entry.Action,
		entry.Resource, entry.ResourceID, entry.OldValue, entry.NewValue,
		entry.IPAddress, entry.UserAgent, entry.Success, entry.ErrorMsg,
		entry.Timestamp,
	).Exec()
}
