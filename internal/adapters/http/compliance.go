package httpadapter

import (
	"net/http"

	"fleetops/internal/domain"
)

func (s *Server) listComplianceDocuments(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Compliance.ListDocuments(r.Context())
	if err != nil {
		s.fail(w, r, "list compliance documents", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) expiringDocuments(w http.ResponseWriter, r *http.Request) {
	days := 30
	if err := query(r, "days", &days); err != nil {
		s.fail(w, r, "expiring documents", err)
		return
	}
	out, err := s.svc.Compliance.ExpiringWithin(r.Context(), days)
	if err != nil {
		s.fail(w, r, "expiring documents", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) createComplianceDocument(w http.ResponseWriter, r *http.Request) {
	var in domain.ComplianceDocument
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "create compliance document", err)
		return
	}
	out, err := s.svc.Compliance.CreateDocument(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create compliance document", err)
		return
	}
	s.created(w, out)
}

func (s *Server) updateComplianceDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "update compliance document", err)
		return
	}
	var in domain.ComplianceDocument
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "update compliance document", err)
		return
	}
	in.ID = id
	out, err := s.svc.Compliance.UpdateDocument(r.Context(), in)
	if err != nil {
		s.fail(w, r, "update compliance document", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) deleteComplianceDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err == nil {
		err = s.svc.Compliance.DeleteDocument(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, "delete compliance document", err)
		return
	}
	s.ok(w, nil)
}

// Audits

func (s *Server) listAudits(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Compliance.ListAudits(r.Context())
	if err != nil {
		s.fail(w, r, "list audits", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) createAudit(w http.ResponseWriter, r *http.Request) {
	var in domain.Audit
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "create audit", err)
		return
	}
	out, err := s.svc.Compliance.CreateAudit(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create audit", err)
		return
	}
	s.created(w, out)
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "get audit", err)
		return
	}
	out, err := s.svc.Compliance.GetAudit(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get audit", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) updateChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "update checklist item", err)
		return
	}
	itemID, err := pathID(r, "itemID")
	if err != nil {
		s.fail(w, r, "update checklist item", err)
		return
	}
	var in domain.ChecklistItem
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "update checklist item", err)
		return
	}
	in.ID = itemID
	if err := s.svc.Compliance.UpdateChecklistItem(r.Context(), id, in); err != nil {
		s.fail(w, r, "update checklist item", err)
		return
	}
	s.ok(w, in)
}

func (s *Server) evaluateAudit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "evaluate audit", err)
		return
	}
	out, err := s.svc.Compliance.EvaluateAudit(r.Context(), id)
	if err != nil {
		s.fail(w, r, "evaluate audit", err)
		return
	}
	s.ok(w, out)
}

// Risks

func (s *Server) listRisks(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Compliance.ListRisks(r.Context())
	if err != nil {
		s.fail(w, r, "list risks", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) riskMatrix(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Compliance.RiskMatrix(r.Context())
	if err != nil {
		s.fail(w, r, "risk matrix", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) createRisk(w http.ResponseWriter, r *http.Request) {
	var in domain.Risk
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "create risk", err)
		return
	}
	out, err := s.svc.Compliance.CreateRisk(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create risk", err)
		return
	}
	s.created(w, out)
}

func (s *Server) getRisk(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "get risk", err)
		return
	}
	out, err := s.svc.Compliance.GetRisk(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get risk", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) updateRisk(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "update risk", err)
		return
	}
	var in domain.Risk
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "update risk", err)
		return
	}
	in.ID = id
	out, err := s.svc.Compliance.UpdateRisk(r.Context(), in)
	if err != nil {
		s.fail(w, r, "update risk", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) deleteRisk(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err == nil {
		err = s.svc.Compliance.DeleteRisk(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, "delete risk", err)
		return
	}
	s.ok(w, nil)
}
