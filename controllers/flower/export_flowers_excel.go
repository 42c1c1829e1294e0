package flowerControllers

import (
	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"github.com/tutr76/APIFlowerDElivery/apierrors"
	"github.com/tutr76/APIFlowerDElivery/models"
	"gorm.io/gorm"
)

// ExportFlowersToExcel streams the catalog as an xlsx workbook.
func ExportFlowersToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var flowers []models.Flower
		if err := db.Order("id asc").Find(&flowers).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Flowers")
		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		headerRow := sheet.AddRow()
		for _, h := range []string{"ID", "Name", "Price", "InStock", "IsAvailable", "CreatedAt", "UpdatedAt"} {
			headerRow.AddCell().SetValue(h)
		}

		for _, f := range flowers {
			row := sheet.AddRow()
			row.AddCell().SetValue(f.ID)
			row.AddCell().SetValue(f.Name)
			row.AddCell().SetValue(f.Price)
			row.AddCell().SetValue(f.InStock)
			row.AddCell().SetValue(f.IsAvailable)
			row.AddCell().SetValue(f.CreatedAt.Format("2006-01-02 15:04:05"))
			row.AddCell().SetValue(f.UpdatedAt.Format("2006-01-02 15:04:05"))
		}

		c.Header("Content-Disposition", "attachment; filename=flowers.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			apierrors.Respond(c, err)
			return
		}
	}
}
