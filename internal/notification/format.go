package notification

import (
	"fmt"

	"restaurant-ordering/internal/models"
)

// FormatStatusUpdate renders a status update as a single console line
func FormatStatusUpdate(update *models.StatusUpdateMessage) string {
	timestamp := update.Timestamp.Format("2006-01-02 15:04:05")
	return fmt.Sprintf("[%s] %s", timestamp, describe(update))
}

// FromStatusUpdate converts a kitchen status update into a feed entry
func FromStatusUpdate(update *models.StatusUpdateMessage) Notification {
	return Notification{
		Title:       title(update),
		Message:     describe(update),
		Timestamp:   update.Timestamp,
		OrderNumber: update.OrderNumber,
	}
}

func title(update *models.StatusUpdateMessage) string {
	switch models.OrderStatus(update.NewStatus) {
	case models.StatusCooking:
		return fmt.Sprintf("Order %s in the kitchen", update.OrderNumber)
	case models.StatusReady:
		return fmt.Sprintf("Order %s ready", update.OrderNumber)
	case models.StatusCompleted:
		return fmt.Sprintf("Order %s completed", update.OrderNumber)
	case models.StatusCancelled:
		return fmt.Sprintf("Order %s cancelled", update.OrderNumber)
	default:
		return fmt.Sprintf("Order %s updated", update.OrderNumber)
	}
}

func describe(update *models.StatusUpdateMessage) string {
	switch models.OrderStatus(update.NewStatus) {
	case models.StatusCooking:
		if update.EstimatedCompletion != nil {
			return fmt.Sprintf("Order %s is now being prepared by %s. Estimated completion: %s",
				update.OrderNumber, update.ChangedBy, update.EstimatedCompletion.Format("15:04:05"))
		}
		return fmt.Sprintf("Order %s is now being prepared by %s.", update.OrderNumber, update.ChangedBy)
	case models.StatusReady:
		return fmt.Sprintf("Order %s is ready for pickup/delivery! Prepared by %s.", update.OrderNumber, update.ChangedBy)
	case models.StatusCompleted:
		return fmt.Sprintf("Order %s has been completed and delivered.", update.OrderNumber)
	case models.StatusCancelled:
		return fmt.Sprintf("Order %s has been cancelled.", update.OrderNumber)
	default:
		return fmt.Sprintf("Order %s status changed from '%s' to '%s' by %s.",
			update.OrderNumber, update.OldStatus, update.NewStatus, update.ChangedBy)
	}
}
