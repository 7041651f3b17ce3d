package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"matchchat/internal/models"

	"github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func TestExportService(t *testing.T) {
	convey.Convey("Given a session with one answered question", t, func() {
		ctx := context.Background()
		env := newTestEnv()
		env.selectFinal("s1")
		_, err := env.svc.Chat.Ask(ctx, "s1", "Who scored the goals?")
		convey.So(err, convey.ShouldBeNil)
		export := env.svc.Export

		convey.Convey("When it is exported as JSON", func() {
			data, err := export.JSON("s1")

			convey.Convey("Then the transcript carries the match and both turns", func() {
				convey.So(err, convey.ShouldBeNil)
				var got transcript
				convey.So(json.Unmarshal(data, &got), convey.ShouldBeNil)
				convey.So(got.SessionID, convey.ShouldEqual, "s1")
				convey.So(got.Match.MatchID, convey.ShouldEqual, finalMatchID)
				convey.So(len(got.Turns), convey.ShouldEqual, 2)
				convey.So(got.Turns[1].Snippets[0].Title, convey.ShouldEqual, "Goals")
			})
		})

		convey.Convey("When it is exported as Excel", func() {
			data, err := export.Excel(ctx, "s1")
			convey.So(err, convey.ShouldBeNil)
			f, err := excelize.OpenReader(bytes.NewReader(data))
			convey.So(err, convey.ShouldBeNil)
			defer f.Close()

			convey.Convey("Then the chat sheet lists the turns", func() {
				rows, err := f.GetRows(exportSheetName)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(rows), convey.ShouldEqual, 3)
				convey.So(rows[0], convey.ShouldResemble, []string{"Time", "Role", "Text", "Sources"})
				convey.So(rows[1][1], convey.ShouldEqual, "user")
				convey.So(rows[2][2], convey.ShouldEqual, "answer #1")
				convey.So(rows[2][3], convey.ShouldContainSubstring, "Goals (structured-data)")
			})

			convey.Convey("Then a stats sheet compares the teams", func() {
				rows, err := f.GetRows(exportStatsSheet)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(rows), convey.ShouldEqual, 3)
				convey.So(rows[1][0], convey.ShouldEqual, "Argentina")
				convey.So(rows[1][1], convey.ShouldEqual, "3")
				convey.So(rows[2][0], convey.ShouldEqual, "France")
				convey.So(f.GetSheetList(), convey.ShouldNotContain, "Sheet1")
			})
		})

		convey.Convey("When it is synced to the spreadsheet", func() {
			url, err := export.SyncSheet("s1")

			convey.Convey("Then the sheet is cleared and rewritten", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(url, convey.ShouldEqual, "https://docs.google.com/spreadsheets/d/sheet-1")
				convey.So(env.sheets.cleared, convey.ShouldEqual, exportSheetsRange)
				convey.So(len(env.sheets.values), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the session is unknown", func() {
			_, err := export.JSON("nobody")

			convey.Convey("Then it is not found", func() {
				convey.So(errors.Is(err, models.ErrSessionNotFound), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given no spreadsheet is configured", t, func() {
		svc := NewService(Config{}, Deps{Provider: newFakeProvider()})
		svc.Sessions.SwitchMatch("s1", models.MatchRef{MatchID: finalMatchID})

		convey.Convey("When a sync is requested", func() {
			_, err := svc.Export.SyncSheet("s1")

			convey.Convey("Then it is a configuration error", func() {
				convey.So(errors.Is(err, models.ErrConfiguration), convey.ShouldBeTrue)
			})
		})
	})
}
