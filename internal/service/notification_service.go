package service

import (
	"log"

	"edupulse/internal/models"
	"edupulse/internal/repository"
)

// NotificationService writes in-app notifications. Delivery is pull-based:
// clients fetch their feed, there is no push channel.
type NotificationService struct {
	notifications *repository.NotificationRepository
}

func NewNotificationService(notifications *repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string) error {
	n := &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
	}
	if err := s.notifications.Create(n); err != nil {
		log.Printf("[NOTIFY] create failed user=%d type=%s: %v", userID, notifType, err)
		return err
	}
	return nil
}

func (s *NotificationService) Feed(userID uint, limit int) ([]models.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	items, err := s.notifications.ListByUser(userID, limit)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.notifications.CountUnread(userID)
	if err != nil {
		return nil, 0, err
	}
	return items, unread, nil
}

func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	return s.notifications.MarkRead(userID, notificationID)
}

func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.notifications.MarkAllRead(userID)
}
