package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"finanzas/internal/models"
	"finanzas/internal/services"
	"finanzas/internal/testutil"
)

func setupNotificationRouter(handler *NotificationHandler, userID string) *gin.Engine {
	r := gin.New()
	auth := r.Group("/notifications", injectUserID(userID))
	auth.GET("", handler.GetNotifications)
	auth.GET("/unread", handler.GetUnreadNotifications)
	auth.GET("/unread/count", handler.CountUnread)
	auth.PATCH("/read-all", handler.MarkAllRead)
	auth.PATCH("/:id/read", handler.MarkRead)
	auth.DELETE("/:id", handler.DeleteNotification)
	r.POST("/internal/notifications", handler.AppendNotification)
	return r
}

func newNotificationFixture(t *testing.T) (*gorm.DB, *models.User, *mockAuditService, *gin.Engine) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, db)
	audit := &mockAuditService{}
	handler := NewNotificationHandler(services.NewNotificationService(db, nil), audit)
	return db, user, audit, setupNotificationRouter(handler, user.ID)
}

func TestNotificationHandler_List(t *testing.T) {
	db, user, _, r := newNotificationFixture(t)
	defer testutil.TeardownTestDB(t, db)

	now := time.Now().UTC()
	older := testutil.CreateTestNotification(t, db, user.ID, models.NotificationBudgetAlert, now.Add(-2*time.Hour))
	newer := testutil.CreateTestNotification(t, db, user.ID, models.NotificationDueToday, now.Add(-time.Hour))
	other := testutil.CreateTestUser(t, db)
	testutil.CreateTestNotification(t, db, other.ID, models.NotificationPastDue, now)

	t.Run("lists own notifications newest first", func(t *testing.T) {
		rec := doRequest(r, "GET", "/notifications", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		list := parseJSON(t, rec)["notifications"].([]interface{})
		if len(list) != 2 {
			t.Fatalf("expected 2 notifications, got %d", len(list))
		}
		if list[0].(map[string]interface{})["id"] != newer.ID {
			t.Errorf("expected newest first")
		}
		if list[1].(map[string]interface{})["id"] != older.ID {
			t.Errorf("expected oldest last")
		}
	})

	t.Run("filters by kind", func(t *testing.T) {
		rec := doRequest(r, "GET", "/notifications?kind=BUDGET_ALERT", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		list := parseJSON(t, rec)["notifications"].([]interface{})
		if len(list) != 1 || list[0].(map[string]interface{})["id"] != older.ID {
			t.Errorf("expected only the budget alert, got %v", list)
		}

		rec = doRequest(r, "GET", "/notifications/unread?kind=DUE_TODAY", "")
		list = parseJSON(t, rec)["notifications"].([]interface{})
		if len(list) != 1 || list[0].(map[string]interface{})["id"] != newer.ID {
			t.Errorf("expected only the due-today notification, got %v", list)
		}
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		rec := doRequest(r, "GET", "/notifications?kind=SOMETHING", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("counts unread", func(t *testing.T) {
		rec := doRequest(r, "GET", "/notifications/unread/count", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if count := parseJSON(t, rec)["count"].(float64); count != 2 {
			t.Errorf("expected count 2, got %v", count)
		}
	})
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	db, user, audit, r := newNotificationFixture(t)
	defer testutil.TeardownTestDB(t, db)

	n := testutil.CreateTestNotification(t, db, user.ID, models.NotificationBudgetExceeded, time.Now().UTC())

	t.Run("marks read", func(t *testing.T) {
		rec := doRequest(r, "PATCH", "/notifications/"+n.ID+"/read", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		got := parseJSON(t, rec)["notification"].(map[string]interface{})
		if got["is_read"] != true {
			t.Fatalf("expected is_read=true, got %v", got["is_read"])
		}
		if got["read_at"] == nil {
			t.Error("expected read_at to be set")
		}
		if audit.lastAction() != services.AuditReadNotification {
			t.Errorf("expected %s audit entry, got %q", services.AuditReadNotification, audit.lastAction())
		}
	})

	t.Run("repeat keeps the first read time", func(t *testing.T) {
		firstRead := time.Now().UTC().Add(-time.Hour)
		read := testutil.CreateTestNotification(t, db, user.ID, models.NotificationDueToday, firstRead)
		if err := db.Model(read).UpdateColumns(map[string]interface{}{"is_read": true, "read_at": firstRead}).Error; err != nil {
			t.Fatalf("failed to pre-mark notification: %v", err)
		}

		rec := doRequest(r, "PATCH", "/notifications/"+read.ID+"/read", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 on repeat, got %d", rec.Code)
		}
		raw, _ := parseJSON(t, rec)["notification"].(map[string]interface{})["read_at"].(string)
		readAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			t.Fatalf("unparseable read_at %q: %v", raw, err)
		}
		if d := readAt.Sub(firstRead); d > time.Second || d < -time.Second {
			t.Errorf("read_at moved from %v to %v", firstRead, readAt)
		}
	})

	t.Run("unread list excludes read notification", func(t *testing.T) {
		rec := doRequest(r, "GET", "/notifications/unread", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if list := parseJSON(t, rec)["notifications"].([]interface{}); len(list) != 0 {
			t.Errorf("expected no unread notifications, got %d", len(list))
		}
	})

	t.Run("returns 403 for another user's notification", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db)
		foreign := testutil.CreateTestNotification(t, db, other.ID, models.NotificationDueToday, time.Now().UTC())

		rec := doRequest(r, "PATCH", "/notifications/"+foreign.ID+"/read", "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PERMISSION_DENIED")
	})

	t.Run("returns 404 for unknown id", func(t *testing.T) {
		rec := doRequest(r, "PATCH", "/notifications/"+testOtherID+"/read", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NOTIFICATION_NOT_FOUND")
	})

	t.Run("returns 400 for malformed id", func(t *testing.T) {
		rec := doRequest(r, "PATCH", "/notifications/not-an-id/read", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestNotificationHandler_MarkAllRead(t *testing.T) {
	db, user, audit, r := newNotificationFixture(t)
	defer testutil.TeardownTestDB(t, db)

	now := time.Now().UTC()
	testutil.CreateTestNotification(t, db, user.ID, models.NotificationBudgetAlert, now)
	testutil.CreateTestNotification(t, db, user.ID, models.NotificationUpcomingDue, now)

	rec := doRequest(r, "PATCH", "/notifications/read-all", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if updated := parseJSON(t, rec)["updated"].(float64); updated != 2 {
		t.Errorf("expected 2 updated, got %v", updated)
	}
	if audit.lastAction() != services.AuditReadAllNotices {
		t.Errorf("expected %s audit entry, got %q", services.AuditReadAllNotices, audit.lastAction())
	}

	rec = doRequest(r, "PATCH", "/notifications/read-all", "")
	if updated := parseJSON(t, rec)["updated"].(float64); updated != 0 {
		t.Errorf("expected second pass to update 0, got %v", updated)
	}

	rec = doRequest(r, "GET", "/notifications/unread/count", "")
	if count := parseJSON(t, rec)["count"].(float64); count != 0 {
		t.Errorf("expected unread count 0, got %v", count)
	}
}

func TestNotificationHandler_Delete(t *testing.T) {
	db, user, audit, r := newNotificationFixture(t)
	defer testutil.TeardownTestDB(t, db)

	n := testutil.CreateTestNotification(t, db, user.ID, models.NotificationPastDue, time.Now().UTC())

	t.Run("deletes own notification", func(t *testing.T) {
		rec := doRequest(r, "DELETE", "/notifications/"+n.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if audit.lastAction() != services.AuditDeleteNotification {
			t.Errorf("expected %s audit entry, got %q", services.AuditDeleteNotification, audit.lastAction())
		}

		again := doRequest(r, "DELETE", "/notifications/"+n.ID, "")
		if again.Code != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", again.Code)
		}
	})

	t.Run("returns 403 for another user's notification", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db)
		foreign := testutil.CreateTestNotification(t, db, other.ID, models.NotificationPastDue, time.Now().UTC())

		rec := doRequest(r, "DELETE", "/notifications/"+foreign.ID, "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}

		var count int64
		db.Model(&models.Notification{}).Where("id = ?", foreign.ID).Count(&count)
		if count != 1 {
			t.Error("foreign notification must survive")
		}
	})
}

func TestNotificationHandler_Append(t *testing.T) {
	db, user, audit, r := newNotificationFixture(t)
	defer testutil.TeardownTestDB(t, db)

	t.Run("stores unread notification", func(t *testing.T) {
		body := `{"user_id":"` + user.ID + `","kind":"BUDGET_ALERT","title":" Maintenance ","message":"Budgets were recalculated"}`
		rec := doRequest(r, "POST", "/internal/notifications", body)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		n := parseJSON(t, rec)["notification"].(map[string]interface{})
		if n["title"] != "Maintenance" {
			t.Errorf("expected trimmed title, got %v", n["title"])
		}
		if n["is_read"] != false {
			t.Error("expected appended notification to be unread")
		}
		if audit.lastAction() != services.AuditAppendNotification {
			t.Errorf("expected %s audit entry, got %q", services.AuditAppendNotification, audit.lastAction())
		}

		rec = doRequest(r, "GET", "/notifications/unread/count", "")
		if count := parseJSON(t, rec)["count"].(float64); count != 1 {
			t.Errorf("expected unread count 1, got %v", count)
		}
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		body := `{"user_id":"` + user.ID + `","kind":"NEWSLETTER","title":"t","message":"m"}`
		rec := doRequest(r, "POST", "/internal/notifications", body)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("requires title", func(t *testing.T) {
		body := `{"user_id":"` + user.ID + `","kind":"DUE_TODAY","message":"m"}`
		rec := doRequest(r, "POST", "/internal/notifications", body)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		body := `{"user_id":"0190a1b2-0000-7000-8000-0000000000aa","kind":"DUE_TODAY","title":"t","message":"m"}`
		rec := doRequest(r, "POST", "/internal/notifications", body)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "USER_NOT_FOUND")
	})
}
