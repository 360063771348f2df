package mcp

import (
	"context"

	"montecarlo-mcp/internal/model"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type saveInput struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Config      model.Configuration `json:"config"`
}

type updateInput struct {
	ID     string              `json:"id"`
	Config model.Configuration `json:"config"`
}

type idInput struct {
	ID string `json:"id"`
}

type runConfigurationInput struct {
	ID          string             `json:"id"`
	Sensitivity bool               `json:"sensitivity,omitempty"`
	Weights     map[string]float64 `json:"weights,omitempty"`
	Seed        int64              `json:"seed,omitempty"`
}

func (s *Server) handleSaveConfiguration(ctx context.Context, in saveInput) (*sdk.CallToolResult, error) {
	rec, err := s.store.Save(ctx, in.Name, in.Description, in.Config)
	if err != nil {
		return nil, err
	}
	return textResult(rec.Summary())
}

func (s *Server) handleUpdateConfiguration(ctx context.Context, in updateInput) (*sdk.CallToolResult, error) {
	rec, err := s.store.Update(ctx, in.ID, in.Config)
	if err != nil {
		return nil, err
	}
	return textResult(rec.Summary())
}

func (s *Server) handleLoadConfiguration(ctx context.Context, in idInput) (*sdk.CallToolResult, error) {
	rec, err := s.store.Load(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	return textResult(rec)
}

func (s *Server) handleListConfigurations(ctx context.Context, _ struct{}) (*sdk.CallToolResult, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Summary{}
	}
	return textResult(map[string]any{"configurations": list})
}

func (s *Server) handleDeleteConfiguration(ctx context.Context, in idInput) (*sdk.CallToolResult, error) {
	if err := s.store.Delete(ctx, in.ID); err != nil {
		return nil, err
	}
	return textResult(map[string]any{"deleted": in.ID})
}

func (s *Server) handleRunConfiguration(ctx context.Context, in runConfigurationInput) (*sdk.CallToolResult, error) {
	rec, err := s.store.Load(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	req := rec.Config.Request()
	if req.FormulaName == "" {
		req.FormulaName = rec.Name
	}
	if in.Sensitivity || len(in.Weights) > 0 {
		return s.runSensitivity(ctx, req, in.Weights, in.Seed)
	}
	return s.runSimulation(ctx, req, in.Seed)
}
