package datasync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/edspark/schoolhub_backend/config"
	"github.com/edspark/schoolhub_backend/models"
	"github.com/edspark/schoolhub_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Handlers exposes the sync protocol over HTTP. Construct with an explicit
// Config; nothing here reads ambient process-wide sync settings.
type Handlers struct {
	cfg Config
}

func NewHandlers(cfg Config) *Handlers {
	return &Handlers{cfg: cfg}
}

type PushRequest struct {
	BaseVersion *int `json:"baseVersion"`
	Data        any  `json:"data" binding:"required"`
}

type PullResponse struct {
	Key       string    `json:"key"`
	Version   int       `json:"version"`
	Data      *Document `json:"data"`
	UpdatedAt *string   `json:"updatedAt"`
}

type PushResponse struct {
	Key       string `json:"key"`
	Version   int    `json:"version"`
	UpdatedAt string `json:"updatedAt"`
}

type ConflictResponse struct {
	Error         string          `json:"error"`
	ServerVersion int             `json:"serverVersion"`
	ServerData    json.RawMessage `json:"serverData"`
}

var errVersionConflict = errors.New("version conflict")

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// Pull returns the stored version number together with a fresh export of
// the live relational state. Never mutates anything; a never-seeded school
// degenerates to version 0 and the empty document shape.
//
// Version/updatedAt come from the dataset row while data comes from the
// live tables. They can disagree when rows changed outside push; that is
// the protocol's documented behavior, not a bug to unify here.
func (h *Handlers) Pull() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		schoolId, err := resolveSchoolID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ctx := utils.SetSchoolIdInContext(c.Request.Context(), schoolId)

		version := 0
		var updatedAt *string
		var ds models.SchoolDataset
		err = config.GetDB().WithContext(ctx).
			Where("school_id = ? AND `key` = ?", schoolId, h.cfg.Key()).
			Take(&ds).Error
		if err == nil {
			version = ds.Version
			updatedAt = formatTime(&ds.UpdatedAt)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			config.LogError(logger, "datasync", "Pull", "read dataset record", schoolId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
			return
		}

		doc, err := Export(ctx, schoolId)
		if err != nil {
			config.LogError(logger, "datasync", "Pull", "export dataset", schoolId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
			return
		}

		c.JSON(http.StatusOK, PullResponse{
			Key:       h.cfg.Key(),
			Version:   version,
			Data:      doc,
			UpdatedAt: updatedAt,
		})
	}
}

// Push validates the request shape, then atomically replaces the school's
// state and bumps the dataset version. Optimistic concurrency: a supplied
// baseVersion that does not match the stored version is rejected with the
// server's version and stored snapshot, and nothing is mutated.
func (h *Handlers) Push() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		schoolId, err := resolveSchoolID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req PushRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			details := map[string]string{}
			var verr validator.ValidationErrors
			if errors.As(err, &verr) {
				details = utils.ProcessValidationErrors(err)
			} else {
				details["body"] = err.Error()
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": details})
			return
		}

		ctx := utils.SetSchoolIdInContext(c.Request.Context(), schoolId)

		// Redis lock serializes concurrent pushes for one school early and
		// cheaply; the SELECT ... FOR UPDATE below is the actual correctness
		// guarantee against lost updates.
		lock, err := obtainPushLock(ctx, schoolId)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "another sync is in progress"})
			return
		}
		if lock != nil {
			defer func() { _ = lock.Release(ctx) }()
		}

		submitted, err := json.Marshal(req.Data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": map[string]string{"data": "not serializable"}})
			return
		}
		doc := DecodeDocument(req.Data)

		var conflict *ConflictResponse
		var result PushResponse

		err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var ds models.SchoolDataset
			found := true
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("school_id = ? AND `key` = ?", schoolId, h.cfg.Key()).
				Take(&ds).Error
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				found = false
			}

			if found && req.BaseVersion != nil && *req.BaseVersion != ds.Version {
				conflict = &ConflictResponse{
					Error:         "Version conflict",
					ServerVersion: ds.Version,
					ServerData:    json.RawMessage(ds.Data),
				}
				return errVersionConflict
			}

			if err := ImportTx(tx, schoolId, doc); err != nil {
				return err
			}

			now := time.Now()
			if found {
				if err := tx.Model(&models.SchoolDataset{}).
					Where("id = ?", ds.ID).
					Updates(map[string]interface{}{
						"version":    ds.Version + 1,
						"data":       submitted,
						"updated_at": now,
					}).Error; err != nil {
					return err
				}
				result = PushResponse{Key: h.cfg.Key(), Version: ds.Version + 1, UpdatedAt: now.UTC().Format(time.RFC3339)}
				return nil
			}

			ds = models.SchoolDataset{
				SchoolId: schoolId,
				Key:      h.cfg.Key(),
				Version:  1,
				Data:     submitted,
			}
			if err := tx.Create(&ds).Error; err != nil {
				// Two first-pushes racing on (school_id, key): the loser hits
				// the unique index and is reported as a conflict.
				if isDuplicateKeyErr(err) {
					var winner models.SchoolDataset
					if rerr := tx.Where("school_id = ? AND `key` = ?", schoolId, h.cfg.Key()).
						Take(&winner).Error; rerr == nil {
						conflict = &ConflictResponse{
							Error:         "Version conflict",
							ServerVersion: winner.Version,
							ServerData:    json.RawMessage(winner.Data),
						}
						return errVersionConflict
					}
				}
				return err
			}
			result = PushResponse{Key: h.cfg.Key(), Version: 1, UpdatedAt: now.UTC().Format(time.RFC3339)}
			return nil
		})

		if conflict != nil {
			c.JSON(http.StatusConflict, conflict)
			return
		}
		if err != nil {
			config.LogError(logger, "datasync", "Push", "import transaction", schoolId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func obtainPushLock(ctx context.Context, schoolId string) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		// Redis not up yet; the row lock still protects the push.
		return nil, nil
	}
	return locker.Obtain(ctx, "sync:push:"+schoolId, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
}

// resolveSchoolID maps the authenticated session user to its school,
// preferring the redis-cached user record.
func resolveSchoolID(c *gin.Context) (string, error) {
	username, ok := utils.GetUsernameFromContext(c.Request.Context())
	if !ok || strings.TrimSpace(username) == "" {
		return "", errors.New("unauthorized")
	}

	var user models.User
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		return "", err
	}
	if !exists {
		db := config.GetDB()
		if db == nil {
			return "", errors.New("db is nil")
		}
		if err := db.WithContext(c.Request.Context()).
			Model(&models.User{}).
			Where("username = ?", username).
			Take(&user).Error; err != nil {
			return "", errors.New("unauthorized")
		}
		_ = config.SetRedisObject("User:"+username, &user, time.Hour)
	}
	schoolId := strings.TrimSpace(user.SchoolId)
	if schoolId == "" {
		return "", errors.New("school_id is required")
	}
	return schoolId, nil
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
