package auth

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const adminSessionKey = "admin"

type Session struct {
	sessions.Session
}

func LoadSession(c *gin.Context) *Session {
	return &Session{
		Session: sessions.Default(c),
	}
}

func (s *Session) LoginAdmin() error {
	s.Set(adminSessionKey, adminFingerprint())
	return s.Save()
}

func (s *Session) Logout() {
	s.Delete(adminSessionKey)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = s.Save()
}

func (s *Session) Admin() *Admin {
	fp, _ := s.Get(adminSessionKey).(string)
	if fp == "" || fp != adminFingerprint() {
		return nil
	}
	return &Admin{granted: true, Via: "session"}
}
