package messaging

import (
	"strings"
	"testing"

	"restaurant-ordering/internal/models"
)

func TestKitchenQueuesFor(t *testing.T) {
	tests := []struct {
		name  string
		types []models.OrderType
		want  []string
	}{
		{"general station", nil, []string{KitchenDineInQueue, KitchenTakeoutQueue, KitchenDeliveryQueue}},
		{"delivery only", []models.OrderType{models.Delivery}, []string{KitchenDeliveryQueue}},
		{"dine in and takeout", []models.OrderType{models.Takeout, models.DineIn}, []string{KitchenDineInQueue, KitchenTakeoutQueue}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KitchenQueuesFor(tt.types)
			if len(got) != len(tt.want) {
				t.Fatalf("KitchenQueuesFor() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("KitchenQueuesFor() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestEveryRoutingKeyHasOneQueue(t *testing.T) {
	for _, b := range kitchenBindings {
		key := models.GenerateRoutingKey(b.orderType, 10)
		matches := 0
		for _, other := range kitchenBindings {
			if topicMatches(other.routingKey, key) {
				matches++
			}
		}
		if matches != 1 {
			t.Errorf("routing key %s matches %d queues, want 1", key, matches)
		}
	}
}

// topicMatches implements the subset of AMQP topic matching used by the bindings
func topicMatches(pattern, key string) bool {
	pw := strings.Split(pattern, ".")
	kw := strings.Split(key, ".")
	if len(pw) != len(kw) {
		return false
	}
	for i := range pw {
		if pw[i] != "*" && pw[i] != kw[i] {
			return false
		}
	}
	return true
}
