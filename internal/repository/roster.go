package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
)

// ParticipantRecord: запись ростера в хранилище. Может содержать только id:
// такие записи разрешаются через справочник при чтении.
type ParticipantRecord struct {
	ID       string     `json:"id"`
	Name     string     `json:"name,omitempty"`
	Avatar   string     `json:"avatar,omitempty"`
	JoinedAt *time.Time `json:"joined_at,omitempty"`
}

type HostRecord struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// EncodeRoster: nil -> nil (NULL в БД), пустой срез -> "[]".
func EncodeRoster(list []domain.Participant) ([]byte, error) {
	if list == nil {
		return nil, nil
	}
	recs := make([]ParticipantRecord, 0, len(list))
	for _, p := range list {
		rec := ParticipantRecord{ID: p.ID()}
		if u, ok := p.User(); ok {
			rec.Name = u.Name
			rec.Avatar = u.AvatarURL
		}
		if !p.JoinedAt.IsZero() {
			t := p.JoinedAt
			rec.JoinedAt = &t
		}
		recs = append(recs, rec)
	}
	return json.Marshal(recs)
}

func DecodeRoster(data []byte) ([]ParticipantRecord, error) {
	if data == nil {
		return nil, nil
	}
	recs := []ParticipantRecord{}
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	return recs, nil
}

func EncodeHosts(hosts []domain.UserRef) ([]byte, error) {
	recs := make([]HostRecord, 0, len(hosts))
	for _, h := range hosts {
		recs = append(recs, HostRecord{ID: h.ID, Name: h.Name, Avatar: h.AvatarURL})
	}
	return json.Marshal(recs)
}

func DecodeHosts(data []byte) ([]domain.UserRef, error) {
	var recs []HostRecord
	if len(data) > 0 {
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("decode hosts: %w", err)
		}
	}
	out := make([]domain.UserRef, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.UserRef{ID: r.ID, Name: r.Name, AvatarURL: r.Avatar})
	}
	return out, nil
}

type userFinder interface {
	FindUser(ctx context.Context, id string) (domain.UserRef, error)
}

// ResolveRoster превращает записи в участников. Запись с именем и аватаром
// считается полной; запись только с id ищется в справочнике, а если ее там
// нет: остается Unresolved.
func ResolveRoster(ctx context.Context, dir userFinder, recs []ParticipantRecord) ([]domain.Participant, error) {
	if recs == nil {
		return nil, nil
	}
	out := make([]domain.Participant, 0, len(recs))
	for _, rec := range recs {
		p := domain.Participant{}
		if rec.JoinedAt != nil {
			p.JoinedAt = *rec.JoinedAt
		}

		switch {
		case rec.Name != "" && rec.Avatar != "":
			p.MemberRef = domain.Resolved(domain.UserRef{ID: rec.ID, Name: rec.Name, AvatarURL: rec.Avatar})
		case dir == nil:
			p.MemberRef = domain.Unresolved(rec.ID)
		default:
			u, err := dir.FindUser(ctx, rec.ID)
			switch {
			case err == nil:
				p.MemberRef = domain.Resolved(u)
			case errors.Is(err, ErrNotFound):
				p.MemberRef = domain.Unresolved(rec.ID)
			default:
				return nil, err
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// EncodeStrings / DecodeStrings: JSON-массив строк (темы, интересы) для SQLite.
func EncodeStrings(ss []string) (string, error) {
	if ss == nil {
		ss = []string{}
	}
	b, err := json.Marshal(ss)
	return string(b), err
}

func DecodeStrings(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode strings: %w", err)
	}
	return out, nil
}
