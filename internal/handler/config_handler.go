package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/libertypay/card-reconciliation/internal/config"
	"github.com/libertypay/card-reconciliation/internal/dto"
)

type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// Get exposes the non-secret runtime settings so operators can verify
// which workbook, sheet names and merchant identifiers a deployment uses.
func (h *ConfigHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ConfigResponse{
		WorkbookPath: h.cfg.WorkbookPath,
		OutputDir:    h.cfg.OutputDir,
		DaysOffset:   h.cfg.DaysOffset,
		Schedule:     h.cfg.Schedule,
		Sheets: map[string]string{
			"card_transaction": h.cfg.SheetCardTransaction,
			"nibss_settlement": h.cfg.SheetNIBSSSettlement,
			"isw_settlement":   h.cfg.SheetISWSettlement,
			"parallex_nibss":   h.cfg.SheetParallexNIBSS,
			"bank_unity":       h.cfg.SheetBankUnity,
			"bank_parallex":    h.cfg.SheetBankParallex,
		},
		MerchantIDs: map[string]string{
			"interswitch_unity": h.cfg.MerchantIDInterswitchUnity,
			"nibss_unity":       h.cfg.MerchantIDNIBSSUnity,
			"nibss_parallex":    h.cfg.MerchantIDNIBSSParallex,
		},
	})
}
