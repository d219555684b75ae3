package httpapi

import "net/http"

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	items := s.notifications.Items()
	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"unread_count":  s.notifications.UnreadCount(),
		"notifications": items,
	})
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]int{"unread_count": s.notifications.UnreadCount()})
}

func (s *Server) markNotificationsRead(w http.ResponseWriter, r *http.Request) {
	s.notifications.MarkAllRead()
	s.writeJSON(w, r, http.StatusOK, map[string]int{"unread_count": s.notifications.UnreadCount()})
}

func (s *Server) clearNotifications(w http.ResponseWriter, r *http.Request) {
	s.notifications.Clear()
	w.WriteHeader(http.StatusNoContent)
}
