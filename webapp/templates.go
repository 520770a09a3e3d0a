package webapp

import "html/template"

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Weather Web</title></head>
<body>
  <h1>Weather Web</h1>
  {{if .Email}}
    <p>Signed in as {{.Email}}</p>
    <p><a href="/weather">View the weather forecast</a></p>
    <form method="post" action="/auth/logout"><button type="submit">Sign out</button></form>
  {{else}}
    <p><a href="/weather">Sign in to view the weather forecast</a></p>
  {{end}}
</body>
</html>
`))

var weatherTemplate = template.Must(template.New("weather").Parse(`<!DOCTYPE html>
<html>
<head><title>Weather Forecast</title></head>
<body>
  <h1>Weather Forecast</h1>
  <p>Signed in as {{.Email}}</p>
  <table>
    <thead><tr><th>Date</th><th>Temp (C)</th><th>Temp (F)</th><th>Summary</th></tr></thead>
    <tbody>
    {{range .Forecasts}}
      <tr><td>{{.Date}}</td><td>{{.TemperatureC}}</td><td>{{.TemperatureF}}</td><td>{{.Summary}}</td></tr>
    {{end}}
    </tbody>
  </table>
  <p><a href="/">Home</a></p>
</body>
</html>
`))

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>Something went wrong</title></head>
<body>
  <h1>Something went wrong</h1>
  <p>{{.Message}}</p>
  <p><a href="/">Home</a></p>
</body>
</html>
`))
